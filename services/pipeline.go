package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/sources"
)

// Ergebnis-Status eines Quellen-Laufs im Update-Summary.
const (
	OutcomeCompleted          = "completed"
	OutcomeCompletedWithSkips = "completed_with_skips"
	OutcomeFailed             = "failed"
)

// SourceOutcome ist das strukturierte Ergebnis eines Quellen-Laufs.
// Teilerfolg ist ein eigener, berichtbarer Ausgang, kein versteckter.
type SourceOutcome struct {
	Source   string        `json:"source"`
	Status   string        `json:"status"`
	Records  int           `json:"records"`
	Upserted int           `json:"upserted"`
	Staged   int           `json:"staged"`
	Skipped  int           `json:"skipped"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Pipeline orchestriert den gesamten Update-Lauf: Progress -> Fetch ->
// Auflösung -> transaktionale Aggregation -> Score-Neuberechnung der
// betroffenen Gene. Der Fehlschlag einer Quelle bricht die anderen nie ab.
type Pipeline struct {
	Config *config.Config
	Logger *zap.Logger

	Adapters   map[string]sources.Adapter
	Resolver   *Resolver
	Aggregator *Aggregator
	Tracker    *ProgressTracker
	Scorer     *Scorer
}

// NewPipeline konstruiert die Pipeline samt Adaptern für alle
// konfigurierten Quellen. Ein unbekannter Quellenname ist ein
// Konfigurationsfehler und schlägt hier fehl, nicht erst zur Laufzeit.
func NewPipeline(cfg *config.Config, db *gorm.DB, cacheSvc *cache.Service, logger *zap.Logger) (*Pipeline, error) {
	adapters := make(map[string]sources.Adapter)
	for _, name := range cfg.SourceNames() {
		kind, err := sources.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("ENABLED_SOURCES: %w", err)
		}
		adapter, err := sources.New(kind, cfg, cacheSvc, logger)
		if err != nil {
			return nil, err
		}
		adapters[name] = adapter
	}

	return &Pipeline{
		Config:     cfg,
		Logger:     logger,
		Adapters:   adapters,
		Resolver:   NewResolver(db, logger),
		Aggregator: NewAggregator(db, logger),
		Tracker:    NewProgressTracker(db, logger),
		Scorer:     NewScorer(db, logger, cfg.TierAThreshold, cfg.TierBThreshold),
	}, nil
}

// RunUpdate führt den Update-Lauf für die angegebenen Quellen aus (leer =
// alle konfigurierten). Gibt pro Quelle ein Ergebnis zurück und wirft nie
// wegen einer einzelnen Quelle.
func (p *Pipeline) RunUpdate(ctx context.Context, sourceNames []string, force bool) []SourceOutcome {
	if len(sourceNames) == 0 {
		for name := range p.Adapters {
			sourceNames = append(sourceNames, name)
		}
		sort.Strings(sourceNames)
	}

	outcomes := make([]SourceOutcome, 0, len(sourceNames))
	for _, name := range sourceNames {
		outcomes = append(outcomes, p.runSource(ctx, name, force))
	}
	return outcomes
}

// runSource verarbeitet genau eine Quelle von Start bis Complete/Fail.
func (p *Pipeline) runSource(ctx context.Context, name string, force bool) SourceOutcome {
	started := time.Now()
	outcome := SourceOutcome{Source: name}
	log := p.Logger.With(zap.String("source", name))

	adapter, ok := p.Adapters[name]
	if !ok {
		outcome.Status = OutcomeFailed
		outcome.Error = fmt.Sprintf("quelle %q ist nicht konfiguriert", name)
		return outcome
	}

	progress, err := p.Tracker.Start(name)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	fail := func(reason string) SourceOutcome {
		if err := p.Tracker.Fail(name, reason); err != nil {
			log.Error("Progress-Fail nicht persistiert", zap.Error(err))
		}
		outcome.Status = OutcomeFailed
		outcome.Error = reason
		outcome.Duration = time.Since(started)
		return outcome
	}

	// Inkrementeller Fetch ab dem Cursor des letzten erfolgreichen
	// Laufs, sofern die Quelle das unterstützt.
	var since *time.Time
	if !force && adapter.Incremental() {
		since = progress.LastCursor
	}

	p.Tracker.Advance(name, 0, 0, "hole daten")
	records, fetchSkipped, err := adapter.Fetch(ctx, since, force)
	if err != nil {
		return fail(fmt.Sprintf("fetch: %v", err))
	}
	outcome.Records = len(records)
	outcome.Skipped = fetchSkipped
	log.Info("Fetch abgeschlossen",
		zap.Int("records", len(records)), zap.Int("skipped", fetchSkipped))

	var resolved []ResolvedEvidence
	affected := make(map[uint]struct{})
	total := len(records)
	for i := range records {
		if ctx.Err() != nil {
			return fail(fmt.Sprintf("abgebrochen: %v", ctx.Err()))
		}
		if i%25 == 0 {
			p.Tracker.Advance(name, i, total, fmt.Sprintf("löse erwähnung %d/%d auf", i+1, total))
		}

		rec := &records[i]
		result, err := p.Resolver.Resolve(rec.GeneText, name)
		if errors.Is(err, ErrEmptyMention) {
			outcome.Skipped++
			continue
		}
		if err != nil {
			// Storage-Fehler im Resolver sind fatal für den Lauf.
			return fail(fmt.Sprintf("auflösung %q: %v", rec.GeneText, err))
		}

		switch result.Status {
		case StatusNormalized:
			resolved = append(resolved, ResolvedEvidence{
				GeneID:       result.Gene.ID,
				SourceDetail: rec.SourceDetail,
				Payload:      rec.Payload,
				EvidenceDate: rec.EvidenceDate,
			})
			affected[result.Gene.ID] = struct{}{}
		case StatusRequiresManualReview:
			outcome.Staged++
		}
	}

	p.Tracker.Advance(name, total, total, "schreibe evidenz")
	upserted, err := p.Aggregator.IngestBatch(ctx, name, resolved)
	if err != nil {
		return fail(fmt.Sprintf("aggregation: %v", err))
	}
	outcome.Upserted = upserted

	affectedIDs := make([]uint, 0, len(affected))
	for id := range affected {
		affectedIDs = append(affectedIDs, id)
	}
	if err := p.Scorer.ComputeForGenes(affectedIDs); err != nil {
		return fail(fmt.Sprintf("score-berechnung: %v", err))
	}

	if err := p.Tracker.Complete(name, started); err != nil {
		log.Error("Progress-Complete nicht persistiert", zap.Error(err))
	}

	outcome.Status = OutcomeCompleted
	if outcome.Skipped > 0 {
		outcome.Status = OutcomeCompletedWithSkips
	}
	outcome.Duration = time.Since(started)
	log.Info("Quellen-Lauf abgeschlossen",
		zap.String("status", outcome.Status),
		zap.Int("upserted", outcome.Upserted),
		zap.Int("staged", outcome.Staged),
		zap.Int("skipped", outcome.Skipped),
		zap.Duration("duration", outcome.Duration))
	return outcome
}
