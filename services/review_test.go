package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

func stageMention(t *testing.T, resolver *Resolver, text, source string) *models.StagingRecord {
	t.Helper()
	result, err := resolver.Resolve(text, source)
	require.NoError(t, err)
	require.Equal(t, StatusRequiresManualReview, result.Status)
	return result.Staging
}

func TestApproveCreatesGeneAndAlias(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	review := NewReviewService(db, testLogger())

	staged := stageMention(t, resolver, "NPHP16", "gencc")

	gene, err := review.Approve(staged.ID, "ANKS6", "curator-1")
	require.NoError(t, err)
	assert.Equal(t, "ANKS6", gene.ApprovedSymbol)
	assert.True(t, gene.Current())

	var record models.StagingRecord
	require.NoError(t, db.First(&record, staged.ID).Error)
	assert.Equal(t, models.StagingApproved, record.ReviewStatus)
	require.NotNil(t, record.ResolvedGeneID)
	assert.Equal(t, gene.ID, *record.ResolvedGeneID)
	assert.Equal(t, "curator-1", record.ReviewedBy)

	// Die Erwähnung löst ab jetzt automatisch über den neuen Alias auf.
	result, err := resolver.Resolve("NPHP16", "literature")
	require.NoError(t, err)
	require.Equal(t, StatusNormalized, result.Status)
	assert.Equal(t, gene.ID, result.Gene.ID)
}

func TestApproveReusesExistingGene(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	review := NewReviewService(db, testLogger())
	existing := mustCreateGene(t, db, "APOL1")

	staged := stageMention(t, resolver, "APO-L1", "pubtator")
	gene, err := review.Approve(staged.ID, "apol1", "curator-2")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, gene.ID)

	var count int64
	db.Model(&models.Gene{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestApproveRejectsNonPending(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	review := NewReviewService(db, testLogger())

	staged := stageMention(t, resolver, "FOO9", "gencc")
	_, err := review.Approve(staged.ID, "PKD1", "curator-1")
	require.NoError(t, err)

	_, err = review.Approve(staged.ID, "PKD2", "curator-2")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.ErrorIs(t, review.Reject(staged.ID, "curator-2"), ErrNotPending)
}

func TestRejectArchivesRecord(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	review := NewReviewService(db, testLogger())

	staged := stageMention(t, resolver, "KIDNEYX", "literature")
	require.NoError(t, review.Reject(staged.ID, "curator-1"))

	var record models.StagingRecord
	require.NoError(t, db.First(&record, staged.ID).Error)
	assert.Equal(t, models.StagingRejected, record.ReviewStatus)
	require.NotNil(t, record.ReviewedAt)

	// Kein neues kanonisches Gen entstanden.
	var count int64
	db.Model(&models.Gene{}).Count(&count)
	assert.Zero(t, count)
}

func TestListFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	review := NewReviewService(db, testLogger())

	a := stageMention(t, resolver, "AAA1", "gencc")
	stageMention(t, resolver, "BBB2", "gencc")
	require.NoError(t, review.Reject(a.ID, "curator-1"))

	pending, err := review.List(models.StagingPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "BBB2", pending[0].NormalizedText)

	all, err := review.List("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
