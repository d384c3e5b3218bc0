package models

import (
	"time"
)

// Gene repräsentiert eine kanonische Gen-Identität mit zeitlichem
// Gültigkeitsfenster. Pro Symbol-Linie hat höchstens eine Zeile ein
// offenes ValidTo (= aktueller Stand). Umbenennungen schließen die alte
// Zeile und öffnen eine neue, es wird nie hart gelöscht.
type Gene struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ApprovedSymbol string `json:"approved_symbol" gorm:"index:idx_genes_symbol_current,unique,where:valid_to IS NULL;not null"`
	HGNCID         string `json:"hgnc_id,omitempty" gorm:"index"`
	Name           string `json:"name,omitempty"`

	ValidFrom time.Time  `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to,omitempty" gorm:"index"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Gene) TableName() string {
	return "genes"
}

// Current meldet, ob diese Zeile der aktuelle Stand der Symbol-Linie ist.
func (g *Gene) Current() bool {
	return g.ValidTo == nil
}

// GeneAlias bildet einen bekannten Alternativnamen deterministisch auf ein
// aktuelles Gen ab. Wird auch durch Kurator-Freigaben von Staging-Einträgen
// erweitert, damit identische Erwähnungen künftig automatisch auflösen.
type GeneAlias struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Alias  string `json:"alias" gorm:"uniqueIndex;not null"` // normalisiert (Großschreibung)
	GeneID uint   `json:"gene_id" gorm:"index;not null"`
	Gene   *Gene  `json:"gene,omitempty" gorm:"foreignKey:GeneID"`

	// Herkunft: "hgnc", "curation", ...
	Origin string `json:"origin,omitempty"`
}

func (GeneAlias) TableName() string { return "gene_aliases" }

// GeneSynonym ist die feste Abbildung von Langformen (z.B. Proteinnamen)
// auf ein approved symbol. Kein Fuzzy-Matching, nur exakte Lookups.
type GeneSynonym struct {
	ID uint `json:"id" gorm:"primaryKey"`

	Synonym        string `json:"synonym" gorm:"uniqueIndex;not null"` // normalisiert (Großschreibung)
	ApprovedSymbol string `json:"approved_symbol" gorm:"not null"`
}

func (GeneSynonym) TableName() string { return "gene_synonyms" }

// ExcludedTerm ist ein generischer Begriff (z.B. "ALBUMIN"), der trotz
// gültigem Symbol-Muster nie provisorisch akzeptiert werden darf.
type ExcludedTerm struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Term string `json:"term" gorm:"uniqueIndex;not null"`
}

func (ExcludedTerm) TableName() string { return "excluded_terms" }
