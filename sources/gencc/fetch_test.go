package gencc

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

const exportURL = "https://search.thegencc.org/download/action/submissions-export-json"

func setupFetcher(t *testing.T) *Fetcher {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CacheEntry{}))

	cfg := &config.Config{
		GenCCBaseURL: exportURL,
		CacheTTL:     time.Hour,
	}
	cacheSvc := cache.NewService(db, zap.NewNop(), 1, 5*time.Second)
	return NewFetcher(cfg, cacheSvc, zap.NewNop())
}

func TestFetchMapsSubmissions(t *testing.T) {
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", exportURL, httpmock.NewStringResponder(200, `{
		"rows": [
			{
				"gene_symbol": "PKD1",
				"gene_curie": "HGNC:9008",
				"disease_title": "polycystic kidney disease 1",
				"disease_curie": "MONDO:0008763",
				"classification_title": "Definitive",
				"moi_title": "Autosomal dominant",
				"submitter_title": "Ambry Genetics",
				"submitted_as_date": "2024-03-15 10:30:00"
			},
			{
				"gene_symbol": "UMOD",
				"classification_title": "Limited",
				"submitter_title": "Invitae"
			},
			{
				"gene_symbol": "",
				"classification_title": "Strong",
				"submitter_title": "Broken Row"
			}
		]
	}`))

	fetcher := setupFetcher(t)
	records, skipped, err := fetcher.Fetch(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "Zeile ohne gene_symbol wird übersprungen")
	require.Len(t, records, 2)

	assert.Equal(t, "PKD1", records[0].GeneText)
	assert.Equal(t, "Ambry Genetics", records[0].SourceDetail)
	require.NotNil(t, records[0].EvidenceDate)
	assert.Equal(t, 2024, records[0].EvidenceDate.Year())
	assert.JSONEq(t, `{
		"classification": "Definitive",
		"disease": "polycystic kidney disease 1",
		"disease_curie": "MONDO:0008763",
		"mode_of_inheritance": "Autosomal dominant",
		"submitter": "Ambry Genetics",
		"gene_curie": "HGNC:9008",
		"confidence": 1.0
	}`, string(records[0].Payload))

	assert.Equal(t, "UMOD", records[1].GeneText)
	assert.JSONEq(t, `{
		"classification": "Limited",
		"disease": "",
		"disease_curie": "",
		"mode_of_inheritance": "",
		"submitter": "Invitae",
		"gene_curie": "",
		"confidence": 0.3
	}`, string(records[1].Payload))
	assert.Nil(t, records[1].EvidenceDate)
}

func TestFetchSecondCallServedFromCache(t *testing.T) {
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", exportURL,
		httpmock.NewStringResponder(200, `{"rows":[{"gene_symbol":"PKD2","classification_title":"Strong","submitter_title":"X"}]}`))

	fetcher := setupFetcher(t)
	_, _, err := fetcher.Fetch(context.Background(), nil, false)
	require.NoError(t, err)
	_, _, err = fetcher.Fetch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetchUpstreamErrorIsFatal(t *testing.T) {
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", exportURL, httpmock.NewStringResponder(404, "gone"))

	fetcher := setupFetcher(t)
	_, _, err := fetcher.Fetch(context.Background(), nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, cache.ErrFetchExhausted)
}

func TestClassificationConfidenceDefaults(t *testing.T) {
	rec, err := mapSubmission(&submission{
		GeneSymbol:          "NPHS2",
		ClassificationTitle: "Brand New Category",
		SubmitterTitle:      "Lab",
	})
	require.NoError(t, err)
	assert.Contains(t, string(rec.Payload), `"confidence":0.3`)
}
