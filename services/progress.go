package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// ErrAlreadyRunning: für eine Quelle läuft bereits eine Ingestion. Der
// zweite Start wird sofort abgelehnt, kein Retry-Kandidat.
var ErrAlreadyRunning = errors.New("quelle läuft bereits")

// ProgressTracker mutiert die SourceProgress-Zeilen exklusiv. Der Mutex
// macht den idle->running-Übergang im Prozess atomar, die Zeile in der DB
// hält den Zustand für Monitoring und Resume.
type ProgressTracker struct {
	DB     *gorm.DB
	Logger *zap.Logger

	mu sync.Mutex
}

// NewProgressTracker erstellt einen neuen Tracker.
func NewProgressTracker(db *gorm.DB, logger *zap.Logger) *ProgressTracker {
	return &ProgressTracker{DB: db, Logger: logger}
}

// Start setzt eine Quelle auf running. Läuft sie bereits, kommt
// ErrAlreadyRunning zurück. failed -> running ist erlaubt (Resume).
func (t *ProgressTracker) Start(sourceName string) (*models.SourceProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress, err := t.load(sourceName)
	if err != nil {
		return nil, err
	}
	if progress.Status == models.ProgressRunning {
		return nil, fmt.Errorf("%w: %s (run %s)", ErrAlreadyRunning, sourceName, progress.RunID)
	}

	now := time.Now()
	progress.Status = models.ProgressRunning
	progress.RunID = uuid.NewString()
	progress.CurrentCount = 0
	progress.TotalCount = 0
	progress.CurrentOp = "gestartet"
	progress.StartedAt = &now
	progress.FinishedAt = nil
	progress.LastError = ""

	if err := t.DB.Save(progress).Error; err != nil {
		return nil, fmt.Errorf("progress-start für %s: %w", sourceName, err)
	}
	t.Logger.Info("Quellen-Lauf gestartet",
		zap.String("source", sourceName), zap.String("run_id", progress.RunID))
	return progress, nil
}

// Advance aktualisiert Zähler und die aktuelle Operation eines laufenden
// Laufs (reine Observability, kein Commit-Marker).
func (t *ProgressTracker) Advance(sourceName string, current, total int, op string) {
	err := t.DB.Model(&models.SourceProgress{}).
		Where("source_name = ? AND status = ?", sourceName, models.ProgressRunning).
		UpdateColumns(map[string]interface{}{
			"current_count": current,
			"total_count":   total,
			"current_op":    op,
		}).Error
	if err != nil {
		t.Logger.Warn("Progress-Advance fehlgeschlagen", zap.String("source", sourceName), zap.Error(err))
	}
}

// Complete schließt einen Lauf erfolgreich ab und setzt den Cursor für
// inkrementelle Folgeläufe.
func (t *ProgressTracker) Complete(sourceName string, cursor time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	return t.DB.Model(&models.SourceProgress{}).
		Where("source_name = ?", sourceName).
		UpdateColumns(map[string]interface{}{
			"status":      models.ProgressCompleted,
			"current_op":  "abgeschlossen",
			"finished_at": now,
			"last_cursor": cursor,
			"updated_at":  now,
		}).Error
}

// Fail schließt einen Lauf mit Fehlerzusammenfassung ab. Auch ein
// Operator-Abbruch landet hier, damit kein Lauf in running hängen bleibt.
func (t *ProgressTracker) Fail(sourceName, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	err := t.DB.Model(&models.SourceProgress{}).
		Where("source_name = ?", sourceName).
		UpdateColumns(map[string]interface{}{
			"status":      models.ProgressFailed,
			"current_op":  "abgebrochen",
			"finished_at": now,
			"last_error":  reason,
			"updated_at":  now,
		}).Error
	if err != nil {
		return err
	}
	t.Logger.Warn("Quellen-Lauf fehlgeschlagen",
		zap.String("source", sourceName), zap.String("reason", reason))
	return nil
}

// Get liest den Zustand einer Quelle.
func (t *ProgressTracker) Get(sourceName string) (*models.SourceProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(sourceName)
}

// List liest den Zustand aller Quellen.
func (t *ProgressTracker) List() ([]models.SourceProgress, error) {
	var all []models.SourceProgress
	err := t.DB.Order("source_name").Find(&all).Error
	return all, err
}

// load liest oder erzeugt die Zeile einer Quelle (idle).
func (t *ProgressTracker) load(sourceName string) (*models.SourceProgress, error) {
	var progress models.SourceProgress
	err := t.DB.Where("source_name = ?", sourceName).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.SourceProgress{SourceName: sourceName, Status: models.ProgressIdle}
		if err := t.DB.Create(&progress).Error; err != nil {
			return nil, fmt.Errorf("progress-anlage für %s: %w", sourceName, err)
		}
		return &progress, nil
	}
	if err != nil {
		return nil, fmt.Errorf("progress-lookup für %s: %w", sourceName, err)
	}
	return &progress, nil
}
