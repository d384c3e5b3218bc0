package models

import (
	"time"
)

// Zustände eines Quellen-Ingestionslaufs.
const (
	ProgressIdle      = "idle"
	ProgressRunning   = "running"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// SourceProgress trackt den Ingestionszustand pro Quelle. Genau eine Zeile
// pro Quelle; wird ausschließlich vom Progress-Tracker mutiert und vom
// Monitoring gelesen.
type SourceProgress struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SourceName string `json:"source_name" gorm:"uniqueIndex;size:64;not null"`
	Status     string `json:"status" gorm:"index;default:'idle'"`
	RunID      string `json:"run_id,omitempty" gorm:"size:36"`

	CurrentCount int    `json:"current_count"`
	TotalCount   int    `json:"total_count"`
	CurrentOp    string `json:"current_op,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty" gorm:"type:text"`

	// Zeitstempel des letzten erfolgreichen Laufs; dient Adaptern mit
	// inkrementellem Fetch als since-Cursor.
	LastCursor *time.Time `json:"last_cursor,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (SourceProgress) TableName() string {
	return "source_progress"
}
