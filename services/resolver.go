package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// ResolutionStatus ist das explizite Ergebnis einer Auflösung. Erwartete
// Geschäftsausgänge laufen über diese Varianten, nicht über Fehler.
type ResolutionStatus string

const (
	StatusNormalized           ResolutionStatus = "normalized"
	StatusRequiresManualReview ResolutionStatus = "requires_manual_review"
)

// ErrEmptyMention: leerer oder reiner Whitespace-Text ist ein echter
// Fehler des Aufrufers, kein Review-Fall.
var ErrEmptyMention = errors.New("leere Gen-Erwähnung")

// ResolutionResult ist das Ergebnis von Resolve. Bei StatusNormalized ist
// Gene gesetzt, bei StatusRequiresManualReview der StagingRecord.
type ResolutionResult struct {
	Status  ResolutionStatus
	Gene    *models.Gene
	Staging *models.StagingRecord
}

// symbolPattern: Großbuchstaben/Ziffern/Bindestrich, beginnend mit einem
// Buchstaben. Nur solche Einzel-Token dürfen provisorisch als plausibles
// Symbol in die Kuration laufen.
var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]*$`)

// Resolver normalisiert freie Gen-Erwähnungen auf kanonische Gen-Zeilen.
// Die Lookup-Kette ist deterministisch, erster Treffer gewinnt; aus freiem
// Text wird nie automatisch ein neues kanonisches Gen angelegt.
type Resolver struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewResolver erstellt einen neuen Resolver.
func NewResolver(db *gorm.DB, logger *zap.Logger) *Resolver {
	return &Resolver{DB: db, Logger: logger}
}

// NormalizeMention bereinigt einen Erwähnungstext für Lookups:
// Großschreibung, innere Whitespace-Läufe auf ein Leerzeichen reduziert.
func NormalizeMention(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// Resolve löst eine rohe Gen-Erwähnung auf. Reihenfolge:
// aktuelles Symbol, Alias-Tabelle, Synonym-Tabelle, dann provisorische
// Weiterleitung plausibler Symbole in die Kuration. Eine frühere
// Ablehnung derselben (Text, Quelle)-Kombination kurzschließt sofort.
func (r *Resolver) Resolve(rawText, sourceName string) (*ResolutionResult, error) {
	norm := NormalizeMention(rawText)
	if norm == "" {
		return nil, ErrEmptyMention
	}

	// Abgelehnte Staging-Einträge nicht erneut durchrechnen.
	var rejected models.StagingRecord
	err := r.DB.Where("normalized_text = ? AND source_name = ? AND review_status = ?",
		norm, sourceName, models.StagingRejected).First(&rejected).Error
	if err == nil {
		// Grund auf die frühere Ablehnung umstellen, damit die Kuration
		// sieht, warum die Erwähnung blockiert bleibt.
		if rejected.ReasonCode != models.ReasonPreviousRejection {
			if err := r.DB.Model(&rejected).
				UpdateColumn("reason_code", models.ReasonPreviousRejection).Error; err != nil {
				return nil, fmt.Errorf("staging-update: %w", err)
			}
		}
		return &ResolutionResult{Status: StatusRequiresManualReview, Staging: &rejected}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("staging-lookup: %w", err)
	}

	// 1. Exakter Treffer auf das aktuelle approved symbol.
	if gene, err := r.currentGeneBySymbol(norm); err != nil {
		return nil, err
	} else if gene != nil {
		return &ResolutionResult{Status: StatusNormalized, Gene: gene}, nil
	}

	// 2. Alias-Tabelle.
	var alias models.GeneAlias
	err = r.DB.Where("alias = ?", norm).First(&alias).Error
	if err == nil {
		var gene models.Gene
		if err := r.DB.First(&gene, alias.GeneID).Error; err != nil {
			return nil, fmt.Errorf("alias zeigt auf fehlendes Gen %d: %w", alias.GeneID, err)
		}
		return &ResolutionResult{Status: StatusNormalized, Gene: &gene}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("alias-lookup: %w", err)
	}

	// 3. Feste Synonym-Tabelle (Langformen -> approved symbol).
	var synonym models.GeneSynonym
	err = r.DB.Where("synonym = ?", norm).First(&synonym).Error
	if err == nil {
		gene, err := r.currentGeneBySymbol(strings.ToUpper(synonym.ApprovedSymbol))
		if err != nil {
			return nil, err
		}
		if gene != nil {
			return &ResolutionResult{Status: StatusNormalized, Gene: gene}, nil
		}
		// Synonym ohne zugehöriges Gen: fällt durch in die Kuration.
		r.Logger.Warn("Synonym ohne aktuelles Gen",
			zap.String("synonym", norm), zap.String("approved_symbol", synonym.ApprovedSymbol))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("synonym-lookup: %w", err)
	}

	// 4./5. Kein Treffer: Grund bestimmen und in die Kuration geben.
	reason := models.ReasonInvalidPattern
	if !strings.Contains(norm, " ") && symbolPattern.MatchString(norm) {
		excluded, err := r.isExcluded(norm)
		if err != nil {
			return nil, err
		}
		if excluded {
			reason = models.ReasonGenericTerm
		} else {
			reason = models.ReasonUnknownSymbol
		}
	}

	staging, err := r.stage(rawText, norm, sourceName, reason)
	if err != nil {
		return nil, err
	}
	return &ResolutionResult{Status: StatusRequiresManualReview, Staging: staging}, nil
}

// currentGeneBySymbol liest die aktuelle Zeile einer Symbol-Linie
// (valid_to IS NULL), case-insensitiv.
func (r *Resolver) currentGeneBySymbol(norm string) (*models.Gene, error) {
	var gene models.Gene
	err := r.DB.Where("UPPER(approved_symbol) = ? AND valid_to IS NULL", norm).First(&gene).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gen-lookup: %w", err)
	}
	return &gene, nil
}

// isExcluded prüft gegen die Ausschlussliste generischer Begriffe.
func (r *Resolver) isExcluded(norm string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.ExcludedTerm{}).Where("term = ?", norm).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ausschluss-lookup: %w", err)
	}
	return count > 0, nil
}

// stage legt einen Staging-Eintrag für (Text, Quelle) an oder erhöht den
// Zähler des bestehenden.
func (r *Resolver) stage(rawText, norm, sourceName, reason string) (*models.StagingRecord, error) {
	var existing models.StagingRecord
	err := r.DB.Where("normalized_text = ? AND source_name = ?", norm, sourceName).First(&existing).Error
	if err == nil {
		existing.SeenCount++
		if err := r.DB.Model(&existing).UpdateColumn("seen_count", existing.SeenCount).Error; err != nil {
			return nil, fmt.Errorf("staging-update: %w", err)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("staging-lookup: %w", err)
	}

	record := models.StagingRecord{
		RawText:        rawText,
		NormalizedText: norm,
		SourceName:     sourceName,
		ReasonCode:     reason,
		ReviewStatus:   models.StagingPending,
		SeenCount:      1,
	}
	if err := r.DB.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("staging-anlage: %w", err)
	}
	r.Logger.Info("Gen-Erwähnung zur Kuration gestellt",
		zap.String("text", norm), zap.String("source", sourceName), zap.String("reason", reason))
	return &record, nil
}

// RenameGene schließt die aktuelle Zeile einer Symbol-Linie und öffnet
// eine neue mit dem neuen Symbol. Evidenz, Aliasse und Score werden auf
// die neue Zeile umgehängt, das alte Symbol bleibt als Alias auflösbar.
func (r *Resolver) RenameGene(oldSymbol, newSymbol string) (*models.Gene, error) {
	oldNorm := NormalizeMention(oldSymbol)
	newNorm := NormalizeMention(newSymbol)
	if oldNorm == "" || newNorm == "" {
		return nil, ErrEmptyMention
	}

	old, err := r.currentGeneBySymbol(oldNorm)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("kein aktuelles Gen mit Symbol %q", oldNorm)
	}

	now := time.Now()
	var renamed models.Gene
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Gene{}).Where("id = ?", old.ID).
			UpdateColumn("valid_to", now).Error; err != nil {
			return err
		}
		renamed = models.Gene{
			ApprovedSymbol: newNorm,
			HGNCID:         old.HGNCID,
			Name:           old.Name,
			ValidFrom:      now,
		}
		if err := tx.Create(&renamed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.EvidenceItem{}).Where("gene_id = ?", old.ID).
			UpdateColumn("gene_id", renamed.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.EvidenceScore{}).Where("gene_id = ?", old.ID).
			UpdateColumn("gene_id", renamed.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.GeneAlias{}).Where("gene_id = ?", old.ID).
			UpdateColumn("gene_id", renamed.ID).Error; err != nil {
			return err
		}
		return tx.Create(&models.GeneAlias{
			Alias:  oldNorm,
			GeneID: renamed.ID,
			Origin: "rename",
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("umbenennung %s -> %s: %w", oldNorm, newNorm, err)
	}

	r.Logger.Info("Gen umbenannt",
		zap.String("old_symbol", oldNorm), zap.String("new_symbol", newNorm), zap.Uint("gene_id", renamed.ID))
	return &renamed, nil
}

// GeneAtTime liest die zu einem Zeitpunkt gültige Zeile einer Symbol-Linie
// (Point-in-Time-Abfrage über das Gültigkeitsfenster).
func (r *Resolver) GeneAtTime(symbol string, at time.Time) (*models.Gene, error) {
	norm := NormalizeMention(symbol)
	var gene models.Gene
	err := r.DB.Where("UPPER(approved_symbol) = ? AND valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)",
		norm, at, at).First(&gene).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gene, nil
}
