package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/models"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/clingen"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/diagpanels"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/gencc"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/hpo"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/literature"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/panelapp"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources/pubtator"
)

// Adapter ist das Interface, das jeder Evidenz-Adapter (z.B. GenCC,
// PanelApp) implementieren muss. Fetch muss idempotent sein: zwei Aufrufe
// mit gleichen Parametern liefern semantisch identische Records (Werte,
// nicht zwingend Reihenfolge). force umgeht die TTL-Prüfung des Caches.
// Der zweite Rückgabewert zählt übersprungene, nicht parsbare Records.
type Adapter interface {
	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "gencc").
	Name() string

	// Fetch holt alle Evidenz-Records der Quelle. since begrenzt bei
	// inkrementellen Quellen auf Änderungen nach dem Zeitpunkt.
	Fetch(ctx context.Context, since *time.Time, force bool) ([]models.RawEvidenceRecord, int, error)

	// Incremental meldet, ob die Quelle since-Cursor unterstützt.
	Incremental() bool
}

// Kind ist die feste Menge bekannter Quellen. Dispatch läuft über diese
// Konstanten, nicht über freie String-Lookups zur Laufzeit.
type Kind string

const (
	KindGenCC      Kind = "gencc"
	KindPanelApp   Kind = "panelapp"
	KindHPO        Kind = "hpo"
	KindClinGen    Kind = "clingen"
	KindPubTator   Kind = "pubtator"
	KindDiagPanels Kind = "diagpanels"
	KindLiterature Kind = "literature"
)

// ParseKind validiert einen Quellennamen aus der Konfiguration. Ein
// unbekannter Name ist ein Konfigurationsfehler, kein Laufzeit-Fallback.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindGenCC, KindPanelApp, KindHPO, KindClinGen, KindPubTator, KindDiagPanels, KindLiterature:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unbekannte Quelle %q", name)
}

// New konstruiert den Adapter für eine Quelle. Der Cache-Service wird
// explizit injiziert, Adapter greifen nie auf globale Handles zu.
func New(kind Kind, cfg *config.Config, cacheSvc *cache.Service, logger *zap.Logger) (Adapter, error) {
	switch kind {
	case KindGenCC:
		return gencc.NewFetcher(cfg, cacheSvc, logger), nil
	case KindPanelApp:
		return panelapp.NewFetcher(cfg, cacheSvc, logger), nil
	case KindHPO:
		return hpo.NewFetcher(cfg, cacheSvc, logger), nil
	case KindClinGen:
		return clingen.NewFetcher(cfg, cacheSvc, logger), nil
	case KindPubTator:
		return pubtator.NewFetcher(cfg, cacheSvc, logger), nil
	case KindDiagPanels:
		return diagpanels.NewFetcher(cfg, cacheSvc, logger), nil
	case KindLiterature:
		return literature.NewFetcher(cfg, cacheSvc, logger), nil
	}
	return nil, fmt.Errorf("kein Adapter für Quelle %q registriert", kind)
}
