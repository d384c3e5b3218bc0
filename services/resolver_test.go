package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

func TestResolveApprovedSymbolCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	gene := mustCreateGene(t, db, "PKD1")

	for _, input := range []string{"PKD1", "pkd1", "  Pkd1  "} {
		result, err := resolver.Resolve(input, "gencc")
		require.NoError(t, err, "input %q", input)
		require.Equal(t, StatusNormalized, result.Status, "input %q", input)
		assert.Equal(t, gene.ID, result.Gene.ID)
	}
}

func TestResolveSynonymLongForm(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	gene := mustCreateGene(t, db, "APOL1")
	require.NoError(t, db.Create(&models.GeneSynonym{
		Synonym: "APOLIPOPROTEIN L1", ApprovedSymbol: "APOL1",
	}).Error)

	result, err := resolver.Resolve("Apolipoprotein  L1", "pubtator")
	require.NoError(t, err)
	require.Equal(t, StatusNormalized, result.Status)
	assert.Equal(t, gene.ID, result.Gene.ID)
}

func TestResolveAlias(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	gene := mustCreateGene(t, db, "PKD2")
	require.NoError(t, db.Create(&models.GeneAlias{
		Alias: "TRPP2", GeneID: gene.ID, Origin: "hgnc",
	}).Error)

	result, err := resolver.Resolve("trpp2", "literature")
	require.NoError(t, err)
	require.Equal(t, StatusNormalized, result.Status)
	assert.Equal(t, gene.ID, result.Gene.ID)
}

func TestResolveUnknownSymbolGoesToStaging(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())

	result, err := resolver.Resolve("ABCD9", "gencc")
	require.NoError(t, err)
	require.Equal(t, StatusRequiresManualReview, result.Status)
	require.NotNil(t, result.Staging)
	assert.Equal(t, models.ReasonUnknownSymbol, result.Staging.ReasonCode)
	assert.Equal(t, models.StagingPending, result.Staging.ReviewStatus)
	assert.Equal(t, 1, result.Staging.SeenCount)

	// Wiederholung erhöht nur den Zähler, keine zweite Zeile.
	again, err := resolver.Resolve("ABCD9", "gencc")
	require.NoError(t, err)
	assert.Equal(t, result.Staging.ID, again.Staging.ID)
	assert.Equal(t, 2, again.Staging.SeenCount)

	var count int64
	db.Model(&models.StagingRecord{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestResolveExcludedTerm(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	require.NoError(t, db.Create(&models.ExcludedTerm{Term: "ALBUMIN"}).Error)

	result, err := resolver.Resolve("Albumin", "pubtator")
	require.NoError(t, err)
	require.Equal(t, StatusRequiresManualReview, result.Status)
	assert.Equal(t, models.ReasonGenericTerm, result.Staging.ReasonCode)
}

func TestResolveInvalidPattern(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())

	for _, input := range []string{"chronic kidney disease", "123ABC", "?!"} {
		result, err := resolver.Resolve(input, "literature")
		require.NoError(t, err, "input %q", input)
		require.Equal(t, StatusRequiresManualReview, result.Status, "input %q", input)
		assert.Equal(t, models.ReasonInvalidPattern, result.Staging.ReasonCode, "input %q", input)
	}
}

func TestResolveEmptyMention(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())

	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := resolver.Resolve(input, "gencc")
		assert.ErrorIs(t, err, ErrEmptyMention, "input %q", input)
	}
}

func TestResolveRejectedShortCircuit(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())

	first, err := resolver.Resolve("NOTAGENE", "gencc")
	require.NoError(t, err)
	require.Equal(t, StatusRequiresManualReview, first.Status)

	review := NewReviewService(db, testLogger())
	require.NoError(t, review.Reject(first.Staging.ID, "tester"))

	// Abgelehnter Eintrag: kein neuer Staging-Eintrag, SeenCount bleibt,
	// der Grund verweist auf die frühere Ablehnung.
	again, err := resolver.Resolve("NOTAGENE", "gencc")
	require.NoError(t, err)
	require.Equal(t, StatusRequiresManualReview, again.Status)
	assert.Equal(t, first.Staging.ID, again.Staging.ID)
	assert.Equal(t, models.StagingRejected, again.Staging.ReviewStatus)
	assert.Equal(t, first.Staging.SeenCount, again.Staging.SeenCount)
	assert.Equal(t, models.ReasonPreviousRejection, again.Staging.ReasonCode)

	var stored models.StagingRecord
	require.NoError(t, db.First(&stored, first.Staging.ID).Error)
	assert.Equal(t, models.ReasonPreviousRejection, stored.ReasonCode)
}

func TestRenameGeneKeepsHistoryAndEvidence(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db, testLogger())
	old := mustCreateGene(t, db, "GPR54")
	require.NoError(t, db.Create(&models.EvidenceItem{
		GeneID: old.ID, SourceName: "gencc", SourceDetail: "x",
	}).Error)
	beforeRename := time.Now()

	renamed, err := resolver.RenameGene("GPR54", "KISS1R")
	require.NoError(t, err)
	assert.Equal(t, "KISS1R", renamed.ApprovedSymbol)
	assert.NotEqual(t, old.ID, renamed.ID)

	// Die alte Zeile ist geschlossen, nicht gelöscht.
	var closed models.Gene
	require.NoError(t, db.First(&closed, old.ID).Error)
	require.NotNil(t, closed.ValidTo)

	// Evidenz hängt an der neuen Zeile.
	var item models.EvidenceItem
	require.NoError(t, db.First(&item).Error)
	assert.Equal(t, renamed.ID, item.GeneID)

	// Das alte Symbol löst über die Alias-Tabelle weiter auf.
	result, err := resolver.Resolve("GPR54", "gencc")
	require.NoError(t, err)
	require.Equal(t, StatusNormalized, result.Status)
	assert.Equal(t, renamed.ID, result.Gene.ID)

	// Point-in-Time: vor der Umbenennung galt die alte Zeile.
	atOld, err := resolver.GeneAtTime("GPR54", beforeRename)
	require.NoError(t, err)
	require.NotNil(t, atOld)
	assert.Equal(t, old.ID, atOld.ID)

	atNew, err := resolver.GeneAtTime("KISS1R", time.Now())
	require.NoError(t, err)
	require.NotNil(t, atNew)
	assert.Equal(t, renamed.ID, atNew.ID)
}

func TestNormalizeMention(t *testing.T) {
	assert.Equal(t, "PKD1", NormalizeMention("  pkd1 "))
	assert.Equal(t, "APOLIPOPROTEIN L1", NormalizeMention("apolipoprotein\t l1"))
	assert.Equal(t, "", NormalizeMention("   "))
}
