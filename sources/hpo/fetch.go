package hpo

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

// annotationResponse ist die Antwort des JAX-Annotation-Endpunkts für
// einen HPO-Term.
type annotationResponse struct {
	Genes []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genes"`
}

// Fetcher holt Gen-Annotationen für konfigurierte HPO-Terme
// (z.B. HP:0000077 "Abnormality of the kidney").
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen HPO-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "hpo"
}

// Incremental: Annotationen werden immer vollständig geholt.
func (f *Fetcher) Incremental() bool {
	return false
}

// Fetch holt für jeden konfigurierten Term die annotierten Gene.
// SourceDetail ist der HPO-Term, damit ein Gen pro Term eine eigene
// Evidenzzeile erhält.
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))

	var records []models.RawEvidenceRecord
	skipped := 0

	for _, term := range strings.Split(f.Config.HPOTermIDs, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		url := fmt.Sprintf("%s/annotation/%s", f.Config.HPOBaseURL, term)
		body, err := f.Cache.GetOrFetch(ctx, f.Name(), url, f.Config.CacheTTL, force,
			cache.FetchURL(httpClient, url))
		if err != nil {
			return nil, skipped, fmt.Errorf("hpo term %s: %w", term, err)
		}

		var resp annotationResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, skipped, fmt.Errorf("hpo-antwort für %s nicht parsbar: %w", term, err)
		}

		for _, g := range resp.Genes {
			symbol := strings.TrimSpace(g.Name)
			if symbol == "" {
				log.Warn("HPO-Annotation ohne Gen-Namen übersprungen",
					zap.String("term", term), zap.Int("gene_id", g.ID))
				skipped++
				continue
			}
			payload, err := json.Marshal(map[string]interface{}{
				"hpo_term":     term,
				"ncbi_gene_id": g.ID,
				"confidence":   1.0,
			})
			if err != nil {
				skipped++
				continue
			}
			records = append(records, models.RawEvidenceRecord{
				GeneText:     symbol,
				SourceDetail: term,
				Payload:      datatypes.JSON(payload),
			})
		}
		log.Info("HPO-Term verarbeitet", zap.String("term", term), zap.Int("genes", len(resp.Genes)))
	}

	return records, skipped, nil
}
