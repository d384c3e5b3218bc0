package clingen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// validityExport ist der Gene-Validity-Download von ClinGen.
type validityExport struct {
	Rows []struct {
		GeneSymbol     string `json:"gene_symbol"`
		HGNCID         string `json:"hgnc_id"`
		DiseaseLabel   string `json:"disease_label"`
		MondoID        string `json:"mondo_id"`
		Classification string `json:"classification"`
		ReportDate     string `json:"report_date"` // RFC3339
	} `json:"rows"`
}

// classificationConfidence bildet die ClinGen-Kurationsstufen auf einen
// Konfidenzfaktor ab.
var classificationConfidence = map[string]float64{
	"definitive": 1.0,
	"strong":     0.9,
	"moderate":   0.6,
	"limited":    0.3,
	"disputed":   0.1,
	"refuted":    0.0,
}

// Fetcher holt kuratierte Gen-Krankheit-Validitäten von ClinGen.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen ClinGen-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "clingen"
}

// Incremental: der Validity-Export ist immer vollständig.
func (f *Fetcher) Incremental() bool {
	return false
}

// Fetch holt den Gene-Validity-Export und mappt jede Kuration.
// SourceDetail ist das kuratierte Krankheitsbild (MONDO-ID), damit
// mehrere Kurationen pro Gen nebeneinander bestehen.
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))

	url := f.Config.ClinGenBaseURL + "?format=json"
	body, err := f.Cache.GetOrFetch(ctx, f.Name(), url, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, url))
	if err != nil {
		return nil, 0, fmt.Errorf("clingen export: %w", err)
	}

	var export validityExport
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, 0, fmt.Errorf("clingen export nicht parsbar: %w", err)
	}

	var records []models.RawEvidenceRecord
	skipped := 0
	for _, row := range export.Rows {
		symbol := strings.TrimSpace(row.GeneSymbol)
		if symbol == "" {
			skipped++
			continue
		}
		confidence, ok := classificationConfidence[strings.ToLower(row.Classification)]
		if !ok {
			log.Warn("Unbekannte ClinGen-Klassifikation übersprungen",
				zap.String("gene", symbol), zap.String("classification", row.Classification))
			skipped++
			continue
		}
		payload, err := json.Marshal(map[string]interface{}{
			"classification": row.Classification,
			"disease":        row.DiseaseLabel,
			"mondo_id":       row.MondoID,
			"hgnc_id":        row.HGNCID,
			"confidence":     confidence,
		})
		if err != nil {
			skipped++
			continue
		}
		rec := models.RawEvidenceRecord{
			GeneText:     symbol,
			SourceDetail: row.MondoID,
			Payload:      datatypes.JSON(payload),
		}
		if row.ReportDate != "" {
			if t, err := time.Parse(time.RFC3339, row.ReportDate); err == nil {
				rec.EvidenceDate = &t
			}
		}
		records = append(records, rec)
	}

	log.Info("ClinGen-Export abgeschlossen",
		zap.Int("records", len(records)), zap.Int("skipped", skipped))
	return records, skipped, nil
}
