package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources"
)

// stubAdapter liefert vorgegebene Records und zeichnet den since-Cursor auf.
type stubAdapter struct {
	name        string
	records     []models.RawEvidenceRecord
	skipped     int
	err         error
	incremental bool
	lastSince   *time.Time
	calls       int
}

func (s *stubAdapter) Name() string      { return s.name }
func (s *stubAdapter) Incremental() bool { return s.incremental }

func (s *stubAdapter) Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error) {
	s.calls++
	s.lastSince = since
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.records, s.skipped, nil
}

func newTestPipeline(t *testing.T, db *gorm.DB, adapters ...sources.Adapter) *Pipeline {
	t.Helper()
	byName := make(map[string]sources.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Pipeline{
		Logger:     testLogger(),
		Adapters:   byName,
		Resolver:   NewResolver(db, testLogger()),
		Aggregator: NewAggregator(db, testLogger()),
		Tracker:    NewProgressTracker(db, testLogger()),
		Scorer:     NewScorer(db, testLogger(), 0.8, 0.5),
	}
}

func TestRunUpdateCompletedRun(t *testing.T) {
	db := setupTestDB(t)
	gene := mustCreateGene(t, db, "PKD1")
	require.NoError(t, db.Create(&models.SourceWeight{SourceName: "gencc", Weight: 0.5}).Error)

	adapter := &stubAdapter{name: "gencc", records: []models.RawEvidenceRecord{
		{GeneText: "pkd1", SourceDetail: "sub1", Payload: datatypes.JSON(`{"confidence":1.0}`)},
	}}
	pipeline := newTestPipeline(t, db, adapter)

	outcomes := pipeline.RunUpdate(context.Background(), nil, false)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCompleted, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Records)
	assert.Equal(t, 1, outcomes[0].Upserted)
	assert.Zero(t, outcomes[0].Staged)

	// Evidenz geschrieben und Score direkt mitberechnet.
	var items []models.EvidenceItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, gene.ID, items[0].GeneID)

	var score models.EvidenceScore
	require.NoError(t, db.Where("gene_id = ?", gene.ID).First(&score).Error)
	assert.InDelta(t, 0.5, score.Score, 1e-9)

	progress, err := pipeline.Tracker.Get("gencc")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCompleted, progress.Status)
	require.NotNil(t, progress.LastCursor)
}

func TestRunUpdateStagesUnknownMentions(t *testing.T) {
	db := setupTestDB(t)
	mustCreateGene(t, db, "PKD1")

	adapter := &stubAdapter{name: "pubtator", records: []models.RawEvidenceRecord{
		{GeneText: "PKD1", SourceDetail: "text-mining", Payload: datatypes.JSON(`{}`)},
		{GeneText: "UNBEKANNT9", SourceDetail: "text-mining", Payload: datatypes.JSON(`{}`)},
		{GeneText: "   ", SourceDetail: "text-mining", Payload: datatypes.JSON(`{}`)},
	}}
	pipeline := newTestPipeline(t, db, adapter)

	outcomes := pipeline.RunUpdate(context.Background(), []string{"pubtator"}, false)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeCompletedWithSkips, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Upserted)
	assert.Equal(t, 1, outcomes[0].Staged)
	assert.Equal(t, 1, outcomes[0].Skipped)

	var staging []models.StagingRecord
	require.NoError(t, db.Find(&staging).Error)
	require.Len(t, staging, 1)
	assert.Equal(t, "UNBEKANNT9", staging[0].NormalizedText)
}

func TestRunUpdateFailureDoesNotAbortSiblings(t *testing.T) {
	db := setupTestDB(t)
	mustCreateGene(t, db, "PKD1")

	broken := &stubAdapter{name: "clingen", err: errors.New("upstream kaputt")}
	healthy := &stubAdapter{name: "gencc", records: []models.RawEvidenceRecord{
		{GeneText: "PKD1", SourceDetail: "sub1", Payload: datatypes.JSON(`{}`)},
	}}
	pipeline := newTestPipeline(t, db, broken, healthy)

	outcomes := pipeline.RunUpdate(context.Background(), nil, false)
	require.Len(t, outcomes, 2)

	// Sortierte Reihenfolge: clingen vor gencc.
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "upstream kaputt")
	assert.Equal(t, OutcomeCompleted, outcomes[1].Status)

	progress, err := pipeline.Tracker.Get("clingen")
	require.NoError(t, err)
	assert.Equal(t, models.ProgressFailed, progress.Status)
	assert.NotEmpty(t, progress.LastError)
}

func TestRunUpdateRejectsConcurrentRun(t *testing.T) {
	db := setupTestDB(t)
	adapter := &stubAdapter{name: "gencc"}
	pipeline := newTestPipeline(t, db, adapter)

	_, err := pipeline.Tracker.Start("gencc")
	require.NoError(t, err)

	outcomes := pipeline.RunUpdate(context.Background(), []string{"gencc"}, false)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "läuft bereits")
	assert.Zero(t, adapter.calls)
}

func TestRunUpdatePassesIncrementalCursor(t *testing.T) {
	db := setupTestDB(t)
	adapter := &stubAdapter{name: "pubtator", incremental: true}
	pipeline := newTestPipeline(t, db, adapter)

	// Erster Lauf: kein Cursor vorhanden.
	outcomes := pipeline.RunUpdate(context.Background(), []string{"pubtator"}, false)
	require.Equal(t, OutcomeCompleted, outcomes[0].Status)
	assert.Nil(t, adapter.lastSince)

	// Zweiter Lauf: Cursor des ersten Laufs wird durchgereicht.
	outcomes = pipeline.RunUpdate(context.Background(), []string{"pubtator"}, false)
	require.Equal(t, OutcomeCompleted, outcomes[0].Status)
	require.NotNil(t, adapter.lastSince)

	// force ignoriert den Cursor.
	pipeline.RunUpdate(context.Background(), []string{"pubtator"}, true)
	assert.Nil(t, adapter.lastSince)
}

func TestRunUpdateUnknownSourceFails(t *testing.T) {
	db := setupTestDB(t)
	pipeline := newTestPipeline(t, db, &stubAdapter{name: "gencc"})

	outcomes := pipeline.RunUpdate(context.Background(), []string{"hpo"}, false)
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
}
