package models

import (
	"time"
)

// Review-Status eines Staging-Eintrags.
const (
	StagingPending  = "pending"
	StagingApproved = "approved"
	StagingRejected = "rejected"
)

// Gründe, warum eine Gen-Erwähnung nicht automatisch aufgelöst wurde.
const (
	ReasonUnknownSymbol     = "unknown_symbol"
	ReasonGenericTerm       = "generic_term"
	ReasonInvalidPattern    = "invalid_pattern"
	ReasonPreviousRejection = "previous_rejection"
)

// StagingRecord hält eine Gen-Erwähnung, die nicht automatisch aufgelöst
// werden konnte, für die manuelle Kuration fest. Pro (normalisierter Text,
// Quelle) existiert höchstens ein Eintrag; Wiederholungen erhöhen SeenCount.
type StagingRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RawText        string `json:"raw_text" gorm:"type:text;not null"`
	NormalizedText string `json:"normalized_text" gorm:"index:idx_staging_text_source,unique;size:512;not null"`
	SourceName     string `json:"source_name" gorm:"index:idx_staging_text_source,unique;size:64;not null"`
	Context        string `json:"context,omitempty" gorm:"type:text"`

	ReasonCode   string `json:"reason_code" gorm:"index"`
	ReviewStatus string `json:"review_status" gorm:"index;default:'pending'"`
	SeenCount    int    `json:"seen_count" gorm:"default:1"`

	// Gesetzt, wenn ein Kurator den Eintrag einem Gen zugeordnet hat.
	ResolvedGeneID *uint      `json:"resolved_gene_id,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (StagingRecord) TableName() string {
	return "staging_records"
}
