package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// ResolvedEvidence ist ein aufgelöster Evidenz-Record, bereit für den
// Upsert: die Gen-Erwähnung wurde bereits auf eine Gen-Zeile normalisiert.
type ResolvedEvidence struct {
	GeneID       uint
	SourceDetail string
	Payload      datatypes.JSON
	EvidenceDate *time.Time
}

// Aggregator ist die einzige Komponente, die Evidenz schreibt. Upserts
// laufen pro Quellen-Lauf in einer Transaktion: bricht ein Lauf ab,
// bleiben die Daten anderer Quellen unberührt und es bleibt kein
// halber Lauf zurück (alles-oder-nichts pro Quelle).
type Aggregator struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewAggregator erstellt einen neuen Aggregator.
func NewAggregator(db *gorm.DB, logger *zap.Logger) *Aggregator {
	return &Aggregator{DB: db, Logger: logger}
}

// UpsertEvidence schreibt genau eine Evidenzzeile. Existiert bereits eine
// Zeile für (gene, source, source_detail), werden Payload und Datum
// ersetzt, nie dupliziert (last-write-wins).
func (a *Aggregator) UpsertEvidence(tx *gorm.DB, geneID uint, sourceName, sourceDetail string, payload datatypes.JSON, evidenceDate *time.Time) error {
	item := models.EvidenceItem{
		GeneID:       geneID,
		SourceName:   sourceName,
		SourceDetail: sourceDetail,
		Payload:      payload,
		EvidenceDate: evidenceDate,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gene_id"}, {Name: "source_name"}, {Name: "source_detail"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payload":       item.Payload,
			"evidence_date": item.EvidenceDate,
			"updated_at":    time.Now(),
		}),
	}).Create(&item).Error
}

// IngestBatch schreibt das Ergebnis eines Quellen-Laufs als eine logische
// Einheit. Die Reihenfolge innerhalb des Laufs bleibt erhalten, damit bei
// Konflikten innerhalb der Charge der letzte Record gewinnt.
func (a *Aggregator) IngestBatch(ctx context.Context, sourceName string, items []ResolvedEvidence) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			it := &items[i]
			if err := a.UpsertEvidence(tx, it.GeneID, sourceName, it.SourceDetail, it.Payload, it.EvidenceDate); err != nil {
				return fmt.Errorf("upsert für Gen %d (%s/%s): %w", it.GeneID, sourceName, it.SourceDetail, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.Logger.Info("Evidenz-Charge geschrieben",
		zap.String("source", sourceName), zap.Int("items", len(items)))
	return len(items), nil
}

// ListEvidence liest alle Evidenzzeilen eines Gens.
func (a *Aggregator) ListEvidence(geneID uint) ([]models.EvidenceItem, error) {
	var items []models.EvidenceItem
	err := a.DB.Where("gene_id = ?", geneID).Order("source_name, source_detail").Find(&items).Error
	return items, err
}

// PurgeSource löscht sämtliche Evidenz einer Quelle (expliziter
// Quellen-Purge, der einzige Weg, Evidenz zu entfernen).
func (a *Aggregator) PurgeSource(sourceName string) (int64, error) {
	res := a.DB.Where("source_name = ?", sourceName).Delete(&models.EvidenceItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	a.Logger.Info("Quelle gepurged",
		zap.String("source", sourceName), zap.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}
