package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// ErrNotPending: nur offene Staging-Einträge können kuratiert werden.
var ErrNotPending = errors.New("staging-eintrag ist nicht pending")

// ReviewService bedient die manuelle Kuration von Staging-Einträgen.
// Eine Freigabe speist den Erwähnungstext als Alias zurück in den
// Resolver, damit identische Erwähnungen künftig automatisch auflösen.
type ReviewService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewReviewService erstellt einen neuen Review-Service.
func NewReviewService(db *gorm.DB, logger *zap.Logger) *ReviewService {
	return &ReviewService{DB: db, Logger: logger}
}

// List liest Staging-Einträge, optional nach Review-Status gefiltert.
func (r *ReviewService) List(status string, limit int) ([]models.StagingRecord, error) {
	query := r.DB.Model(&models.StagingRecord{}).Order("seen_count desc, created_at")
	if status != "" {
		query = query.Where("review_status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []models.StagingRecord
	err := query.Find(&records).Error
	return records, err
}

// Approve ordnet einen Staging-Eintrag einem approved symbol zu.
// Existiert noch kein aktuelles Gen mit diesem Symbol, wird es angelegt:
// die Kurator-Entscheidung ist der einzige Weg, auf dem aus freiem Text
// eine neue kanonische Identität entsteht. Der Erwähnungstext wird als
// Alias registriert, sofern er nicht selbst das Symbol ist.
func (r *ReviewService) Approve(id uint, approvedSymbol, reviewer string) (*models.Gene, error) {
	symbol := NormalizeMention(approvedSymbol)
	if symbol == "" {
		return nil, ErrEmptyMention
	}

	var record models.StagingRecord
	if err := r.DB.First(&record, id).Error; err != nil {
		return nil, fmt.Errorf("staging-eintrag %d: %w", id, err)
	}
	if record.ReviewStatus != models.StagingPending {
		return nil, fmt.Errorf("%w: %d (%s)", ErrNotPending, id, record.ReviewStatus)
	}

	var gene models.Gene
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("UPPER(approved_symbol) = ? AND valid_to IS NULL", symbol).First(&gene).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			gene = models.Gene{ApprovedSymbol: symbol, ValidFrom: time.Now()}
			if err := tx.Create(&gene).Error; err != nil {
				return fmt.Errorf("gen-anlage %s: %w", symbol, err)
			}
		} else if err != nil {
			return err
		}

		if record.NormalizedText != symbol {
			alias := models.GeneAlias{
				Alias:  record.NormalizedText,
				GeneID: gene.ID,
				Origin: "curation",
			}
			// Bereits vorhandene Aliasse sind kein Fehler.
			if err := tx.Where("alias = ?", alias.Alias).FirstOrCreate(&alias).Error; err != nil {
				return fmt.Errorf("alias-anlage %s: %w", alias.Alias, err)
			}
		}

		now := time.Now()
		record.ReviewStatus = models.StagingApproved
		record.ResolvedGeneID = &gene.ID
		record.ReviewedAt = &now
		record.ReviewedBy = reviewer
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	r.Logger.Info("Staging-Eintrag freigegeben",
		zap.Uint("staging_id", id),
		zap.String("text", record.NormalizedText),
		zap.String("approved_symbol", symbol),
		zap.String("reviewer", reviewer))
	return &gene, nil
}

// Reject archiviert einen Staging-Eintrag. Identische (Text, Quelle)-
// Erwähnungen werden danach vom Resolver ohne Neuberechnung
// kurzgeschlossen.
func (r *ReviewService) Reject(id uint, reviewer string) error {
	var record models.StagingRecord
	if err := r.DB.First(&record, id).Error; err != nil {
		return fmt.Errorf("staging-eintrag %d: %w", id, err)
	}
	if record.ReviewStatus != models.StagingPending {
		return fmt.Errorf("%w: %d (%s)", ErrNotPending, id, record.ReviewStatus)
	}

	now := time.Now()
	record.ReviewStatus = models.StagingRejected
	record.ReviewedAt = &now
	record.ReviewedBy = reviewer
	if err := r.DB.Save(&record).Error; err != nil {
		return err
	}

	r.Logger.Info("Staging-Eintrag abgelehnt",
		zap.Uint("staging_id", id),
		zap.String("text", record.NormalizedText),
		zap.String("reviewer", reviewer))
	return nil
}
