package models

import (
	"time"

	"gorm.io/datatypes"
)

// RawEvidenceRecord ist die gemeinsame Zwischenform, die jeder
// Quellen-Adapter liefert: eine rohe Gen-Erwähnung plus die Evidenz, die
// nach erfolgreicher Auflösung am Gen landet. Ephemer, wird nie selbst
// persistiert.
type RawEvidenceRecord struct {
	GeneText     string
	SourceDetail string
	Payload      datatypes.JSON
	EvidenceDate *time.Time
}
