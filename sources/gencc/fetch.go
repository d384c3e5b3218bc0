package gencc

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

var httpClient = &http.Client{Timeout: 120 * time.Second}

// classificationConfidence bildet GenCC-Klassifikationen auf einen
// Konfidenzfaktor im Score ab.
var classificationConfidence = map[string]float64{
	"definitive":                    1.0,
	"strong":                        0.9,
	"moderate":                      0.6,
	"supportive":                    0.4,
	"limited":                       0.3,
	"disputed evidence":             0.1,
	"refuted evidence":              0.0,
	"no known disease relationship": 0.0,
}

// Fetcher kapselt die Logik zur Interaktion mit dem GenCC-Export.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des GenCC-Fetchers.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "gencc"
}

// Incremental: GenCC liefert nur den vollständigen Export.
func (f *Fetcher) Incremental() bool {
	return false
}

// Fetch holt den kompletten Submission-Export und mappt jede Einreichung
// auf einen RawEvidenceRecord. Nicht parsbare Zeilen werden gezählt und
// übersprungen, nicht fatal.
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))
	log.Info("Starte GenCC-Export-Abruf.")

	body, err := f.Cache.GetOrFetch(ctx, f.Name(), f.Config.GenCCBaseURL, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, f.Config.GenCCBaseURL))
	if err != nil {
		return nil, 0, fmt.Errorf("gencc export: %w", err)
	}

	var export submissionExport
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, 0, fmt.Errorf("gencc export nicht parsbar: %w", err)
	}

	var records []models.RawEvidenceRecord
	skipped := 0
	for i := range export.Rows {
		rec, err := mapSubmission(&export.Rows[i])
		if err != nil {
			log.Warn("GenCC-Einreichung übersprungen", zap.Int("row", i), zap.Error(err))
			skipped++
			continue
		}
		records = append(records, *rec)
	}

	log.Info("GenCC-Export abgeschlossen",
		zap.Int("records", len(records)), zap.Int("skipped", skipped))
	return records, skipped, nil
}

// mapSubmission wandelt eine Einreichung in die gemeinsame Zwischenform um.
func mapSubmission(s *submission) (*models.RawEvidenceRecord, error) {
	symbol := strings.TrimSpace(s.GeneSymbol)
	if symbol == "" {
		return nil, fmt.Errorf("leeres gene_symbol")
	}

	confidence, ok := classificationConfidence[strings.ToLower(s.ClassificationTitle)]
	if !ok {
		confidence = 0.3 // unbekannte Klassifikation konservativ einstufen
	}

	payload, err := json.Marshal(map[string]interface{}{
		"classification":      s.ClassificationTitle,
		"disease":             s.DiseaseTitle,
		"disease_curie":       s.DiseaseCurie,
		"mode_of_inheritance": s.ModeOfInheritance,
		"submitter":           s.SubmitterTitle,
		"gene_curie":          s.GeneCurie,
		"confidence":          confidence,
	})
	if err != nil {
		return nil, err
	}

	rec := &models.RawEvidenceRecord{
		GeneText:     symbol,
		SourceDetail: s.SubmitterTitle,
		Payload:      datatypes.JSON(payload),
	}
	if s.SubmittedAsDate != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", s.SubmittedAsDate); err == nil {
			rec.EvidenceDate = &t
		}
	}
	return rec, nil
}
