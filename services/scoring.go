package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// Scorer berechnet den Evidenz-Score eines Gens aus seinen EvidenceItems.
// Quellen-Gewichte kommen aus der source_weights-Tabelle, die
// Tier-Schwellen aus der Konfiguration. Die Berechnung ist deterministisch
// und unabhängig von der Reihenfolge der Evidenzzeilen.
type Scorer struct {
	DB     *gorm.DB
	Logger *zap.Logger

	TierAThreshold float64
	TierBThreshold float64
}

// NewScorer erstellt einen neuen Scorer mit den konfigurierten Schwellen.
func NewScorer(db *gorm.DB, logger *zap.Logger, tierA, tierB float64) *Scorer {
	return &Scorer{DB: db, Logger: logger, TierAThreshold: tierA, TierBThreshold: tierB}
}

// ComputeScore berechnet und persistiert den Score eines Gens.
// Pro Quelle zählt die beste Konfidenz über alle source_details, damit
// zusätzliche Evidenz den Score nie senken kann (Monotonie).
func (s *Scorer) ComputeScore(geneID uint) (*models.EvidenceScore, error) {
	weights, err := s.loadWeights()
	if err != nil {
		return nil, err
	}
	return s.computeWithWeights(geneID, weights)
}

// RecomputeAll berechnet die Scores aller Gene neu, die Evidenz haben oder
// je einen Score hatten. Idempotent und jederzeit sicher wiederholbar.
func (s *Scorer) RecomputeAll() (int, error) {
	weights, err := s.loadWeights()
	if err != nil {
		return 0, err
	}

	ids := make(map[uint]struct{})

	var evidenceGeneIDs []uint
	if err := s.DB.Model(&models.EvidenceItem{}).Distinct("gene_id").Pluck("gene_id", &evidenceGeneIDs).Error; err != nil {
		return 0, fmt.Errorf("gene mit Evidenz: %w", err)
	}
	for _, id := range evidenceGeneIDs {
		ids[id] = struct{}{}
	}

	// Auch Gene einbeziehen, deren Evidenz gepurged wurde: deren Score
	// muss auf 0 zurückfallen statt stehen zu bleiben.
	var scoredGeneIDs []uint
	if err := s.DB.Model(&models.EvidenceScore{}).Pluck("gene_id", &scoredGeneIDs).Error; err != nil {
		return 0, fmt.Errorf("gene mit Score: %w", err)
	}
	for _, id := range scoredGeneIDs {
		ids[id] = struct{}{}
	}

	count := 0
	for id := range ids {
		if _, err := s.computeWithWeights(id, weights); err != nil {
			return count, err
		}
		count++
	}
	s.Logger.Info("Score-Neuberechnung abgeschlossen", zap.Int("genes", count))
	return count, nil
}

// ComputeForGenes berechnet die Scores einer Gen-Menge neu (nach einem
// Quellen-Lauf nur die betroffenen Gene).
func (s *Scorer) ComputeForGenes(geneIDs []uint) error {
	if len(geneIDs) == 0 {
		return nil
	}
	weights, err := s.loadWeights()
	if err != nil {
		return err
	}
	for _, id := range geneIDs {
		if _, err := s.computeWithWeights(id, weights); err != nil {
			return err
		}
	}
	return nil
}

// computeWithWeights ist der eigentliche Kern: Summe über die Quellen von
// Gewicht mal bester Konfidenz.
func (s *Scorer) computeWithWeights(geneID uint, weights map[string]float64) (*models.EvidenceScore, error) {
	var items []models.EvidenceItem
	if err := s.DB.Where("gene_id = ?", geneID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("evidenz für Gen %d: %w", geneID, err)
	}

	// Beste Konfidenz pro Quelle (max über alle source_details).
	bestBySource := make(map[string]float64)
	for i := range items {
		conf := payloadConfidence(items[i].Payload)
		if conf > bestBySource[items[i].SourceName] {
			bestBySource[items[i].SourceName] = conf
		}
	}

	// Feste Summationsreihenfolge: Float-Addition ist nicht assoziativ,
	// die Map-Iterationsreihenfolge darf das Ergebnis nicht beeinflussen.
	names := make([]string, 0, len(bestBySource))
	for source := range bestBySource {
		names = append(names, source)
	}
	sort.Strings(names)

	score := 0.0
	for _, source := range names {
		weight, ok := weights[source]
		if !ok {
			s.Logger.Warn("Quelle ohne konfiguriertes Gewicht ignoriert", zap.String("source", source))
			continue
		}
		score += weight * bestBySource[source]
	}

	result := models.EvidenceScore{
		GeneID:      geneID,
		Score:       score,
		Tier:        s.tierFor(score),
		SourceCount: len(bestBySource),
		ComputedAt:  time.Now(),
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gene_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":        result.Score,
			"tier":         result.Tier,
			"source_count": result.SourceCount,
			"computed_at":  result.ComputedAt,
			"updated_at":   time.Now(),
		}),
	}).Create(&result).Error
	if err != nil {
		return nil, fmt.Errorf("score-upsert für Gen %d: %w", geneID, err)
	}
	return &result, nil
}

// tierFor ordnet einen Score in die konfigurierten Buckets ein.
func (s *Scorer) tierFor(score float64) string {
	switch {
	case score >= s.TierAThreshold:
		return models.TierA
	case score >= s.TierBThreshold:
		return models.TierB
	default:
		return models.TierC
	}
}

// loadWeights liest die Gewichtstabelle einmal pro Berechnungslauf.
func (s *Scorer) loadWeights() (map[string]float64, error) {
	var rows []models.SourceWeight
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gewichtstabelle: %w", err)
	}
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.SourceName] = row.Weight
	}
	return weights, nil
}

// payloadConfidence liest den Konfidenzfaktor aus dem Evidenz-Payload
// (Default 1.0, auf [0,1] begrenzt).
func payloadConfidence(payload []byte) float64 {
	if len(payload) == 0 {
		return 1.0
	}
	var fields struct {
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil || fields.Confidence == nil {
		return 1.0
	}
	c := *fields.Confidence
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
