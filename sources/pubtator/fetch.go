package pubtator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher holt text-gemine-te Gen-Erwähnungen aus der PubTator3-Suche.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen PubTator-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "pubtator"
}

// Incremental: die Suche unterstützt einen Datums-Cursor.
func (f *Fetcher) Incremental() bool {
	return true
}

// geneHits sammelt die Treffer eines Gen-Symbols über alle Seiten.
type geneHits struct {
	pmids      []int64
	latestDate *time.Time
}

// Fetch durchläuft die Suchseiten für die konfigurierte Query und
// aggregiert pro Gen-Symbol Publikationszahl und PMIDs. Eine Zeile pro
// Gen, SourceDetail "text-mining".
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))
	log.Info("Starte PubTator3-Suche.", zap.String("query", f.Config.PubTatorQuery))

	hits := make(map[string]*geneHits)
	skipped := 0

	for page := 1; page <= f.Config.PubTatorMaxPages; page++ {
		searchURL := f.buildSearchURL(page, since)
		body, err := f.Cache.GetOrFetch(ctx, f.Name(), searchURL, f.Config.CacheTTL, force,
			cache.FetchURL(httpClient, searchURL))
		if err != nil {
			return nil, skipped, fmt.Errorf("pubtator seite %d: %w", page, err)
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			// Eine kaputte Seite verliert nicht den ganzen Lauf.
			log.Warn("PubTator-Seite nicht parsbar, übersprungen", zap.Int("page", page), zap.Error(err))
			skipped++
			continue
		}

		for _, result := range resp.Results {
			var date *time.Time
			if result.Date != "" {
				if t, err := time.Parse("2006-01-02", result.Date); err == nil {
					date = &t
				}
			}
			for _, g := range result.Genes {
				symbol := strings.TrimSpace(g)
				if symbol == "" {
					skipped++
					continue
				}
				h, ok := hits[symbol]
				if !ok {
					h = &geneHits{}
					hits[symbol] = h
				}
				h.pmids = append(h.pmids, result.PMID)
				if date != nil && (h.latestDate == nil || date.After(*h.latestDate)) {
					h.latestDate = date
				}
			}
		}

		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
		if len(resp.Results) == 0 {
			break
		}
	}

	records := make([]models.RawEvidenceRecord, 0, len(hits))
	for symbol, h := range hits {
		sort.Slice(h.pmids, func(i, j int) bool { return h.pmids[i] < h.pmids[j] })
		payload, err := json.Marshal(map[string]interface{}{
			"publication_count": len(h.pmids),
			"pmids":             h.pmids,
			"query":             f.Config.PubTatorQuery,
			"confidence":        1.0,
		})
		if err != nil {
			skipped++
			continue
		}
		records = append(records, models.RawEvidenceRecord{
			GeneText:     symbol,
			SourceDetail: "text-mining",
			Payload:      datatypes.JSON(payload),
			EvidenceDate: h.latestDate,
		})
	}

	log.Info("PubTator-Suche abgeschlossen",
		zap.Int("genes", len(records)), zap.Int("skipped", skipped))
	return records, skipped, nil
}

// buildSearchURL baut die URL für eine Suchseite, optional mit
// Datums-Cursor für inkrementelle Läufe.
func (f *Fetcher) buildSearchURL(page int, since *time.Time) string {
	q := f.Config.PubTatorQuery
	if since != nil {
		q = fmt.Sprintf("%s AND date>%s", q, since.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s/search/?text=%s&page=%d", f.Config.PubTatorBaseURL, url.QueryEscape(q), page)
}
