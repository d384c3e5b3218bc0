package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// setupTestDB öffnet eine isolierte In-Memory-Datenbank pro Test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Gene{}, &models.GeneAlias{}, &models.GeneSynonym{}, &models.ExcludedTerm{},
		&models.StagingRecord{}, &models.EvidenceItem{}, &models.SourceProgress{},
		&models.CacheEntry{}, &models.EvidenceScore{}, &models.SourceWeight{},
	)
	require.NoError(t, err)
	return db
}

// mustCreateGene legt eine aktuelle Gen-Zeile an.
func mustCreateGene(t *testing.T, db *gorm.DB, symbol string) *models.Gene {
	t.Helper()
	gene := models.Gene{ApprovedSymbol: symbol, ValidFrom: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&gene).Error)
	return &gene
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
