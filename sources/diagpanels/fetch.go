package diagpanels

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

// providerPanel ist ein Diagnostik-Panel eines kommerziellen Anbieters,
// wie vom Panel-Aggregations-Endpunkt geliefert.
type providerPanel struct {
	Provider  string   `json:"provider"`
	PanelName string   `json:"panel_name"`
	Version   string   `json:"version"`
	UpdatedAt string   `json:"updated_at"` // RFC3339
	Genes     []string `json:"genes"`
}

// Fetcher holt Gen-Listen diagnostischer Panel-Anbieter.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Diagnostik-Panel-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "diagpanels"
}

// Incremental: Panels werden immer vollständig geholt.
func (f *Fetcher) Incremental() bool {
	return false
}

// Fetch holt alle Anbieter-Panels. SourceDetail ist "anbieter/panel",
// damit dasselbe Gen aus verschiedenen Panels getrennt gezählt wird.
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))

	url := f.Config.DiagPanelsBaseURL + "/panels"
	body, err := f.Cache.GetOrFetch(ctx, f.Name(), url, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, url))
	if err != nil {
		return nil, 0, fmt.Errorf("diagpanels: %w", err)
	}

	var panels []providerPanel
	if err := json.Unmarshal(body, &panels); err != nil {
		return nil, 0, fmt.Errorf("diagpanels-antwort nicht parsbar: %w", err)
	}

	var records []models.RawEvidenceRecord
	skipped := 0
	for _, panel := range panels {
		if panel.Provider == "" || panel.PanelName == "" {
			log.Warn("Panel ohne Anbieter/Namen übersprungen")
			skipped += len(panel.Genes)
			continue
		}
		var evidenceDate *time.Time
		if panel.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, panel.UpdatedAt); err == nil {
				evidenceDate = &t
			}
		}
		detail := panel.Provider + "/" + panel.PanelName
		for _, g := range panel.Genes {
			symbol := strings.TrimSpace(g)
			if symbol == "" {
				skipped++
				continue
			}
			payload, err := json.Marshal(map[string]interface{}{
				"provider":   panel.Provider,
				"panel_name": panel.PanelName,
				"version":    panel.Version,
				"confidence": 1.0,
			})
			if err != nil {
				skipped++
				continue
			}
			records = append(records, models.RawEvidenceRecord{
				GeneText:     symbol,
				SourceDetail: detail,
				Payload:      datatypes.JSON(payload),
				EvidenceDate: evidenceDate,
			})
		}
	}

	log.Info("Diagnostik-Panels abgeschlossen",
		zap.Int("panels", len(panels)), zap.Int("records", len(records)), zap.Int("skipped", skipped))
	return records, skipped, nil
}
