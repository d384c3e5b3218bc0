package literature

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

const annotationsBaseURL = "https://www.ebi.ac.uk/europepmc/annotations_api/annotationsByArticleIds"

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Adapter-Interface für Europe PMC:
// Literatursuche plus text-gemine-te Gen-Annotationen pro Artikel.
type Fetcher struct {
	Config *config.Config
	Cache  *cache.Service
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Europe PMC Literatur-Fetcher.
func NewFetcher(cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Cache: cacheSvc, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "literature"
}

// Incremental: die Suche unterstützt einen FIRST_PDATE-Cursor.
func (f *Fetcher) Incremental() bool {
	return true
}

// Fetch sucht die konfigurierte Query, holt für jeden Treffer die
// Gen-Annotationen und aggregiert pro Gen-Symbol. Eine Zeile pro Gen,
// SourceDetail "europepmc".
func (f *Fetcher) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	log := f.Logger.With(zap.String("source", f.Name()))
	log.Info("Starte Literatursuche auf Europe PMC.", zap.String("query", f.Config.LiteratureQuery))

	articles, err := f.search(ctx, since, force)
	if err != nil {
		return nil, 0, err
	}
	log.Info("Suche abgeschlossen", zap.Int("articles", len(articles)))

	type geneHits struct {
		pmids      []string
		latestDate *time.Time
	}
	hits := make(map[string]*geneHits)
	skipped := 0

	// Annotationen werden gebündelt abgefragt; eine kaputte Charge
	// verliert nicht den ganzen Lauf.
	const batchSize = 8
	for start := 0; start < len(articles); start += batchSize {
		end := start + batchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		annotated, err := f.fetchAnnotations(ctx, batch, force)
		if err != nil {
			log.Warn("Annotations-Charge übersprungen",
				zap.Int("from", start), zap.Int("to", end), zap.Error(err))
			skipped += len(batch)
			continue
		}

		dates := make(map[string]*time.Time, len(batch))
		for i := range batch {
			a := &batch[i]
			if a.FirstPublicationDate == "" {
				continue
			}
			if t, err := time.Parse("2006-01-02", a.FirstPublicationDate); err == nil {
				dates[a.ID] = &t
			}
		}

		for _, art := range annotated {
			date := dates[art.ExtID]
			for _, ann := range art.Annotations {
				symbol := strings.TrimSpace(ann.Exact)
				if symbol == "" {
					skipped++
					continue
				}
				h, ok := hits[symbol]
				if !ok {
					h = &geneHits{}
					hits[symbol] = h
				}
				h.pmids = append(h.pmids, art.ExtID)
				if date != nil && (h.latestDate == nil || date.After(*h.latestDate)) {
					h.latestDate = date
				}
			}
		}
	}

	records := make([]models.RawEvidenceRecord, 0, len(hits))
	for symbol, h := range hits {
		sort.Strings(h.pmids)
		payload, err := json.Marshal(map[string]interface{}{
			"hit_count":  len(h.pmids),
			"pmids":      h.pmids,
			"query":      f.Config.LiteratureQuery,
			"confidence": 1.0,
		})
		if err != nil {
			skipped++
			continue
		}
		records = append(records, models.RawEvidenceRecord{
			GeneText:     symbol,
			SourceDetail: "europepmc",
			Payload:      datatypes.JSON(payload),
			EvidenceDate: h.latestDate,
		})
	}

	log.Info("Literatur-Mining abgeschlossen",
		zap.Int("genes", len(records)), zap.Int("skipped", skipped))
	return records, skipped, nil
}

// search führt die Europe PMC Suche aus, optional mit Datums-Cursor.
func (f *Fetcher) search(ctx context.Context, since *time.Time, force bool) ([]Article, error) {
	query := f.Config.LiteratureQuery
	if since != nil {
		query += fmt.Sprintf(" AND FIRST_PDATE:[%s TO *]", since.Format("2006-01-02"))
	}

	searchURL := fmt.Sprintf("%s?query=%s&format=json&resultType=lite&pageSize=100",
		f.Config.EuropePMCBaseURL, url.QueryEscape(query))

	body, err := f.Cache.GetOrFetch(ctx, f.Name(), searchURL, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, searchURL))
	if err != nil {
		return nil, fmt.Errorf("europepmc suche: %w", err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("europepmc-antwort nicht parsbar: %w", err)
	}
	return resp.ResultList.Result, nil
}

// fetchAnnotations holt die Gene_Proteins-Annotationen für eine Charge
// von Artikeln.
func (f *Fetcher) fetchAnnotations(ctx context.Context, batch []Article, force bool) ([]annotatedArticle, error) {
	ids := make([]string, 0, len(batch))
	for i := range batch {
		src := batch[i].Source
		if src == "" {
			src = "MED"
		}
		ids = append(ids, src+":"+batch[i].ID)
	}

	annURL := fmt.Sprintf("%s?articleIds=%s&type=Gene_Proteins&format=JSON",
		annotationsBaseURL, url.QueryEscape(strings.Join(ids, ",")))

	body, err := f.Cache.GetOrFetch(ctx, f.Name(), annURL, f.Config.CacheTTL, force,
		cache.FetchURL(httpClient, annURL))
	if err != nil {
		return nil, err
	}

	var annotated []annotatedArticle
	if err := json.Unmarshal(body, &annotated); err != nil {
		return nil, fmt.Errorf("annotations-antwort nicht parsbar: %w", err)
	}
	return annotated, nil
}
