package panelapp

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

// confidenceByLevel bildet die PanelApp-Ampel auf einen Konfidenzfaktor ab.
var confidenceByLevel = map[string]float64{
	"3": 1.0, // grün
	"2": 0.6, // amber
	"1": 0.3, // rot
}

// Fetcher implementiert das Adapter-Interface für Genomics England PanelApp.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen PanelApp-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "panelapp"
}

// Incremental: Panels werden immer vollständig geholt.
func (f *Fetcher) Incremental() bool {
	return false
}

// Fetch holt alle konfigurierten Panels. SourceDetail ist die Panel-ID,
// damit dasselbe Gen aus mehreren Panels getrennte Evidenzzeilen erhält.
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))

	var records []models.RawEvidenceRecord
	skipped := 0

	for _, panelID := range strings.Split(f.Config.PanelAppPanelIDs, ",") {
		panelID = strings.TrimSpace(panelID)
		if panelID == "" {
			continue
		}
		panel, err := f.fetchPanel(ctx, panelID, force)
		if err != nil {
			return nil, skipped, fmt.Errorf("panelapp panel %s: %w", panelID, err)
		}
		log.Info("Panel geladen",
			zap.String("panel_id", panelID),
			zap.String("panel_name", panel.Name),
			zap.Int("genes", len(panel.Genes)))

		for i := range panel.Genes {
			rec, err := mapPanelGene(panelID, panel, &panel.Genes[i])
			if err != nil {
				log.Warn("Panel-Gen übersprungen", zap.String("panel_id", panelID), zap.Error(err))
				skipped++
				continue
			}
			records = append(records, *rec)
		}
	}

	return records, skipped, nil
}

// fetchPanel holt ein einzelnes Panel über den Cache.
func (f *Fetcher) fetchPanel(ctx context.Context, panelID string, force bool) (*panelResponse, error) {
	url := fmt.Sprintf("%s/panels/%s/?format=json", f.Config.PanelAppBaseURL, panelID)
	body, err := f.Cache.GetOrFetch(ctx, f.Name(), url, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, url))
	if err != nil {
		return nil, err
	}
	var panel panelResponse
	if err := json.Unmarshal(body, &panel); err != nil {
		return nil, fmt.Errorf("panel-antwort nicht parsbar: %w", err)
	}
	return &panel, nil
}

// mapPanelGene wandelt einen Panel-Eintrag in die gemeinsame Zwischenform um.
func mapPanelGene(panelID string, panel *panelResponse, g *panelGene) (*models.RawEvidenceRecord, error) {
	symbol := strings.TrimSpace(g.GeneData.GeneSymbol)
	if symbol == "" {
		return nil, fmt.Errorf("leeres gene_symbol")
	}

	confidence, ok := confidenceByLevel[g.ConfidenceLevel]
	if !ok {
		return nil, fmt.Errorf("unbekanntes confidence_level %q", g.ConfidenceLevel)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"panel_name":          panel.Name,
		"panel_version":       panel.Version,
		"confidence_level":    g.ConfidenceLevel,
		"mode_of_inheritance": g.ModeOfInheritance,
		"phenotypes":          g.Phenotypes,
		"hgnc_id":             g.GeneData.HGNCID,
		"confidence":          confidence,
	})
	if err != nil {
		return nil, err
	}

	return &models.RawEvidenceRecord{
		GeneText:     symbol,
		SourceDetail: "panel_" + panelID,
		Payload:      datatypes.JSON(payload),
	}, nil
}
