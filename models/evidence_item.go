package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvidenceItem ist ein Evidenz-Datensatz (gene, source, source_detail).
// Der zusammengesetzte Unique-Index erzwingt Upsert statt Duplikat bei
// erneuter Ingestion derselben Quelle.
type EvidenceItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GeneID uint  `json:"gene_id" gorm:"index:idx_evidence_gene_source_detail,unique;not null"`
	Gene   *Gene `json:"gene,omitempty" gorm:"foreignKey:GeneID"`

	SourceName   string `json:"source_name" gorm:"index:idx_evidence_gene_source_detail,unique;size:64;not null"`
	SourceDetail string `json:"source_detail" gorm:"index:idx_evidence_gene_source_detail,unique;size:256;default:''"` // z.B. Panel-ID innerhalb derselben Quelle

	// Quellen-spezifische Schlüssel/Wert-Daten (Klassifikation, Counts, ...).
	Payload datatypes.JSON `json:"payload" gorm:"type:jsonb"`

	EvidenceDate *time.Time `json:"evidence_date,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (EvidenceItem) TableName() string {
	return "evidence_items"
}
