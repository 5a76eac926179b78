package workers

import (
	"context"
	"sync"
	"time"

	"reflectionsmatch/live"
	"reflectionsmatch/logger"
	"reflectionsmatch/models"
)

type Enricher interface {
	Enrich(ctx context.Context, rec models.Reflection) error
}

type TriggerStore interface {
	ListReflections(userID int64) ([]models.Reflection, error)
	ListUnenriched(limit int) ([]models.Reflection, error)
}

// Subscriber is the change feed the workers listen to.
type Subscriber interface {
	Subscribe(buffer int) (<-chan live.Change, func())
}

// EnrichmentTrigger starts enrichment for every image record that has no
// summary yet, at most once at a time per record.
type EnrichmentTrigger struct {
	log      *logger.Logger
	enricher Enricher
	store    TriggerStore
	feed     Subscriber
	inflight *InFlight
	interval time.Duration
	limit    int
	noSweep  bool
	wg       sync.WaitGroup
}

func NewEnrichmentTrigger(log *logger.Logger, enricher Enricher, store TriggerStore, feed Subscriber, interval time.Duration, limit int) *EnrichmentTrigger {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if limit <= 0 {
		limit = 50
	}
	return &EnrichmentTrigger{
		log:      log.With("component", "EnrichmentTrigger"),
		enricher: enricher,
		store:    store,
		feed:     feed,
		inflight: NewInFlight(),
		interval: interval,
		limit:    limit,
	}
}

// WithoutSweep turns off the leftover sweep. With several instances sharing
// one database only one of them should sweep.
func (t *EnrichmentTrigger) WithoutSweep() *EnrichmentTrigger {
	t.noSweep = true
	return t
}

// Evaluate starts enrichment for the eligible records and returns how many
// were started. It never blocks on the enrichment itself.
func (t *EnrichmentTrigger) Evaluate(ctx context.Context, records []models.Reflection) int {
	started := 0
	for _, rec := range records {
		if rec.HasEnrichment() || !rec.HasContent() {
			continue
		}
		if !t.inflight.TryAcquire(rec.ID) {
			continue
		}
		started++
		t.wg.Add(1)
		go func(rec models.Reflection) {
			defer t.wg.Done()
			defer t.inflight.Release(rec.ID)
			if err := t.enricher.Enrich(ctx, rec); err != nil {
				t.log.Debug("enrichment left for retry", "reflection_id", rec.ID, "error", err)
			}
		}(rec)
	}
	return started
}

// Wait blocks until every started enrichment has settled.
func (t *EnrichmentTrigger) Wait() {
	t.wg.Wait()
}

func (t *EnrichmentTrigger) InFlight() *InFlight {
	return t.inflight
}

// Run reacts to local reflection changes and sweeps for leftovers on a
// ticker until ctx is done. Changes relayed from other instances are left to
// the instance that wrote them.
func (t *EnrichmentTrigger) Run(ctx context.Context) {
	changes, cancel := t.feed.Subscribe(256)
	defer cancel()

	var tick <-chan time.Time
	if !t.noSweep {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		tick = ticker.C
		t.sweep(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.Kind != live.KIND_REFLECTIONS || ch.IsRemote() {
				continue
			}
			records, err := t.store.ListReflections(ch.UserID)
			if err != nil {
				t.log.Warn("load reflections failed", "user_id", ch.UserID, "error", err)
				continue
			}
			t.Evaluate(ctx, records)
		case <-tick:
			t.sweep(ctx)
		}
	}
}

func (t *EnrichmentTrigger) sweep(ctx context.Context) {
	records, err := t.store.ListUnenriched(t.limit)
	if err != nil {
		t.log.Warn("unenriched sweep failed", "error", err)
		return
	}
	if n := t.Evaluate(ctx, records); n > 0 {
		t.log.Info("sweep started enrichments", "count", n)
	}
}
