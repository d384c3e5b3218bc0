package models

import (
	"time"
)

// Tier-Bezeichner, geordnet von stark nach schwach.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// EvidenceScore ist der abgeleitete Gesamt-Score eines Gens über alle
// Quellen. Vollständig aus den EvidenceItems rekonstruierbar, wird nie
// eigenständig verfasst, nur neu berechnet.
type EvidenceScore struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GeneID uint  `json:"gene_id" gorm:"uniqueIndex;not null"`
	Gene   *Gene `json:"gene,omitempty" gorm:"foreignKey:GeneID"`

	Score       float64   `json:"score"`
	Tier        string    `json:"tier" gorm:"index;size:8"`
	SourceCount int       `json:"source_count"`
	ComputedAt  time.Time `json:"computed_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (EvidenceScore) TableName() string {
	return "evidence_scores"
}

// SourceWeight ist das konfigurierbare Gewicht einer Quelle im Score.
// Wird beim ersten Start mit Defaults befüllt und ist danach
// Deployment-Konfiguration, kein Code.
type SourceWeight struct {
	ID uint `json:"id" gorm:"primaryKey"`

	SourceName string  `json:"source_name" gorm:"uniqueIndex;size:64;not null"`
	Weight     float64 `json:"weight" gorm:"not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (SourceWeight) TableName() string {
	return "source_weights"
}
