package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

func TestIngestBatchUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db, testLogger())
	gene := mustCreateGene(t, db, "NPHS1")

	batch := []ResolvedEvidence{{
		GeneID:       gene.ID,
		SourceDetail: "panel_275",
		Payload:      datatypes.JSON(`{"confidence":0.6}`),
	}}

	upserted, err := agg.IngestBatch(context.Background(), "panelapp", batch)
	require.NoError(t, err)
	assert.Equal(t, 1, upserted)

	// Zweite Ingestion derselben Quelle: Upsert, kein Duplikat.
	batch[0].Payload = datatypes.JSON(`{"confidence":1.0}`)
	_, err = agg.IngestBatch(context.Background(), "panelapp", batch)
	require.NoError(t, err)

	var items []models.EvidenceItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"confidence":1.0}`, string(items[0].Payload))
}

func TestIngestBatchDistinguishesSourceDetail(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db, testLogger())
	gene := mustCreateGene(t, db, "COL4A5")

	batch := []ResolvedEvidence{
		{GeneID: gene.ID, SourceDetail: "panel_275", Payload: datatypes.JSON(`{}`)},
		{GeneID: gene.ID, SourceDetail: "panel_539", Payload: datatypes.JSON(`{}`)},
	}
	upserted, err := agg.IngestBatch(context.Background(), "panelapp", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, upserted)

	items, err := agg.ListEvidence(gene.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestIngestBatchLastRecordWinsWithinBatch(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db, testLogger())
	gene := mustCreateGene(t, db, "UMOD")
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	batch := []ResolvedEvidence{
		{GeneID: gene.ID, SourceDetail: "s", Payload: datatypes.JSON(`{"v":1}`), EvidenceDate: &earlier},
		{GeneID: gene.ID, SourceDetail: "s", Payload: datatypes.JSON(`{"v":2}`), EvidenceDate: &later},
	}
	_, err := agg.IngestBatch(context.Background(), "clingen", batch)
	require.NoError(t, err)

	var items []models.EvidenceItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"v":2}`, string(items[0].Payload))
	require.NotNil(t, items[0].EvidenceDate)
	assert.True(t, items[0].EvidenceDate.Equal(later))
}

func TestPurgeSourceLeavesOtherSources(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db, testLogger())
	gene := mustCreateGene(t, db, "WT1")

	_, err := agg.IngestBatch(context.Background(), "gencc", []ResolvedEvidence{
		{GeneID: gene.ID, SourceDetail: "a", Payload: datatypes.JSON(`{}`)},
	})
	require.NoError(t, err)
	_, err = agg.IngestBatch(context.Background(), "hpo", []ResolvedEvidence{
		{GeneID: gene.ID, SourceDetail: "HP:0000077", Payload: datatypes.JSON(`{}`)},
	})
	require.NoError(t, err)

	deleted, err := agg.PurgeSource("gencc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	items, err := agg.ListEvidence(gene.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hpo", items[0].SourceName)
}
