package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/berntpopp/kidney-genetics-db-sub004/models"
)

// ErrFetchExhausted wird zurückgegeben, wenn alle Retry-Versuche für einen
// Upstream-Fetch fehlgeschlagen sind. Für den betroffenen Quellen-Lauf ist
// das fatal, der Progress-Tracker setzt ihn auf failed.
var ErrFetchExhausted = errors.New("fetch attempts exhausted")

// FetchError markiert einen Transportfehler eines Adapters. Transient
// entscheidet, ob der Retry-Mechanismus erneut versucht oder sofort
// aufgibt (Netzwerkfehler/5xx/Rate-Limit vs. 4xx).
type FetchError struct {
	Err       error
	Transient bool
	Status    int
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient verpackt einen wiederholbaren Transportfehler.
func Transient(err error) *FetchError {
	return &FetchError{Err: err, Transient: true}
}

// Permanent verpackt einen nicht wiederholbaren Transportfehler.
func Permanent(err error) *FetchError {
	return &FetchError{Err: err, Transient: false}
}

// HTTPStatus verpackt einen Nicht-200-Status; 5xx und 429 gelten als
// transient.
func HTTPStatus(status int) *FetchError {
	return &FetchError{
		Err:       fmt.Errorf("unexpected status %d", status),
		Transient: status >= 500 || status == 429,
		Status:    status,
	}
}

// FetchFunc holt die Nutzlast vom Upstream. Wird nur bei Cache-Miss oder
// Ablauf aufgerufen, und pro (namespace, key) höchstens einmal gleichzeitig.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Service ist die Cache/Retry-Schicht vor allen externen API-Aufrufen:
// Hot-Layer im Prozess, persistierte TTL-Einträge in der DB, Coalescing
// gleichzeitiger Anfragen pro Key und begrenzter exponentieller Backoff.
// Wird als Instanz konstruiert und den Adaptern injiziert, nie global.
type Service struct {
	db          *gorm.DB
	hot         *gocache.Cache
	group       singleflight.Group
	logger      *zap.Logger
	maxAttempts int
	timeout     time.Duration
}

// NewService erstellt einen Cache-Service mit seiner Storage-Abhängigkeit.
func NewService(db *gorm.DB, logger *zap.Logger, maxAttempts int, timeout time.Duration) *Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Service{
		db:          db,
		hot:         gocache.New(5*time.Minute, 10*time.Minute),
		logger:      logger,
		maxAttempts: maxAttempts,
		timeout:     timeout,
	}
}

// GetOrFetch liefert die Nutzlast für (namespace, key): aus dem Cache,
// solange die TTL nicht abgelaufen ist, sonst per fetch mit Retry. force
// umgeht die Frischeprüfung und holt in jedem Fall neu vom Upstream.
func (s *Service) GetOrFetch(ctx context.Context, namespace, key string, ttl time.Duration, force bool, fetch FetchFunc) ([]byte, error) {
	hotKey := namespace + "\x00" + key

	if !force {
		if v, ok := s.hot.Get(hotKey); ok {
			s.touch(namespace, key)
			return v.([]byte), nil
		}
		if payload, ok := s.lookup(namespace, key); ok {
			s.hot.Set(hotKey, payload, ttl)
			return payload, nil
		}
	}

	// Coalescing: gleichzeitige Anfragen für denselben Key warten auf
	// genau einen Upstream-Fetch. force-Flüge laufen getrennt, damit der
	// Bypass nie das DB-Ergebnis eines laufenden Nicht-force-Flugs erbt.
	flightKey := hotKey
	if force {
		flightKey = "force\x00" + hotKey
	}
	v, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		if !force {
			// Ein vorheriger Flight kann den Eintrag bereits
			// geschrieben haben.
			if payload, ok := s.lookup(namespace, key); ok {
				return payload, nil
			}
		}
		payload, err := s.fetchWithRetry(ctx, namespace, key, fetch)
		if err != nil {
			return nil, err
		}
		s.store(namespace, key, payload, ttl)
		s.hot.Set(hotKey, payload, ttl)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// fetchWithRetry führt den Upstream-Fetch mit begrenztem exponentiellem
// Backoff aus. Nicht-transiente Fehler brechen sofort ab.
func (s *Service) fetchWithRetry(ctx context.Context, namespace, key string, fetch FetchFunc) ([]byte, error) {
	var payload []byte
	attempt := 0

	operation := func() error {
		attempt++
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		data, err := fetch(fetchCtx)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && !fe.Transient {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			s.logger.Warn("Upstream-Fetch fehlgeschlagen, versuche erneut",
				zap.String("namespace", namespace),
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		payload = data
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrFetchExhausted, attempt, err)
	}
	return payload, nil
}

// lookup liest einen gültigen Eintrag aus der DB und aktualisiert die
// Zugriffs-Metadaten.
func (s *Service) lookup(namespace, key string) ([]byte, bool) {
	var entry models.CacheEntry
	err := s.db.Where("namespace = ? AND key = ?", namespace, key).First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("Cache-Lookup fehlgeschlagen", zap.String("namespace", namespace), zap.Error(err))
		}
		return nil, false
	}
	if entry.Expired(time.Now()) {
		return nil, false
	}
	s.touch(namespace, key)
	return entry.Payload, true
}

// touch erhöht AccessCount und setzt LastAccessAt.
func (s *Service) touch(namespace, key string) {
	now := time.Now()
	if err := s.db.Model(&models.CacheEntry{}).
		Where("namespace = ? AND key = ?", namespace, key).
		UpdateColumns(map[string]interface{}{
			"access_count":   gorm.Expr("access_count + 1"),
			"last_access_at": now,
		}).Error; err != nil {
		s.logger.Warn("Cache-Zugriffsmetadaten nicht aktualisiert", zap.Error(err))
	}
}

// store persistiert die Antwort mit TTL; bestehende Einträge werden ersetzt.
func (s *Service) store(namespace, key string, payload []byte, ttl time.Duration) {
	now := time.Now()
	entry := models.CacheEntry{
		Namespace:    namespace,
		Key:          key,
		Payload:      payload,
		ExpiresAt:    now.Add(ttl),
		AccessCount:  1,
		LastAccessAt: &now,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payload":        entry.Payload,
			"expires_at":     entry.ExpiresAt,
			"access_count":   1,
			"last_access_at": now,
			"updated_at":     now,
		}),
	}).Create(&entry).Error; err != nil {
		// Ein Cache-Schreibfehler darf den Fetch nicht scheitern lassen.
		s.logger.Warn("Cache-Eintrag nicht gespeichert",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}
}

// ClearNamespace löscht alle Einträge eines Namespace (persistiert und hot).
func (s *Service) ClearNamespace(namespace string) (int64, error) {
	prefix := namespace + "\x00"
	for k := range s.hot.Items() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			s.hot.Delete(k)
		}
	}
	res := s.db.Where("namespace = ?", namespace).Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}

// Evict entfernt abgelaufene Einträge aus der DB (Hot-Layer verdrängt
// selbständig). Gedacht für den Cron-Lauf.
func (s *Service) Evict() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}
