package models

import (
	"time"
)

// CacheEntry ist die persistierte Antwort eines externen API-Aufrufs.
// Namespace + Key identifizieren den Aufruf, ExpiresAt steuert die
// TTL-Verdrängung, AccessCount/LastAccessAt dienen Monitoring und Eviction.
type CacheEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Namespace string `json:"namespace" gorm:"index:idx_cache_ns_key,unique;size:64;not null"`
	Key       string `json:"key" gorm:"index:idx_cache_ns_key,unique;size:512;not null"`

	Payload []byte `json:"-" gorm:"type:bytea"`

	ExpiresAt    time.Time  `json:"expires_at" gorm:"index"`
	AccessCount  int64      `json:"access_count"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Expired meldet, ob der Eintrag zum Zeitpunkt now abgelaufen ist.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
