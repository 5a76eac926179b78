package workers

import (
	"context"
	"errors"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/live"
	"reflectionsmatch/logger"
	"reflectionsmatch/models"
)

var ErrSynthesisBusy = errors.New("uma análise de persona já está em andamento")

type Synthesizer interface {
	Synthesize(ctx context.Context, userID int64, trigger string) (models.Persona, error)
}

type WatcherStore interface {
	GetUser(id int64) (models.User, error)
	CountReflections(userID int64) (int, error)
}

// Feed is a change stream that can also take notices.
type Feed interface {
	Subscriber
	live.Publisher
}

// PersonaWatcher re-runs persona synthesis when the professional profile
// changes (debounced) or when enough new records have accumulated.
type PersonaWatcher struct {
	log      *logger.Logger
	synth    Synthesizer
	store    WatcherStore
	feed     Feed
	inflight *InFlight
	debounce *Debouncer
	ctx      context.Context
}

func NewPersonaWatcher(log *logger.Logger, synth Synthesizer, store WatcherStore, feed Feed, delay time.Duration) *PersonaWatcher {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	w := &PersonaWatcher{
		log:      log.With("component", "PersonaWatcher"),
		synth:    synth,
		store:    store,
		feed:     feed,
		inflight: NewInFlight(),
		ctx:      context.Background(),
	}
	w.debounce = NewDebouncer(delay, func(userID int64) {
		w.start(userID, insights.PERSONA_TRIGGER_EXTERNAL)
	})
	return w
}

func (w *PersonaWatcher) Run(ctx context.Context) {
	w.ctx = ctx
	changes, cancel := w.feed.Subscribe(256)
	defer cancel()
	defer w.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			w.Handle(ch)
		}
	}
}

// Handle routes one change. Profile writes made by the synthesis itself come
// back as profile changes and are ignored here, as are changes relayed from
// other instances.
func (w *PersonaWatcher) Handle(ch live.Change) {
	if ch.IsRemote() {
		return
	}
	switch ch.Kind {
	case live.KIND_EXTERNAL_PROFILE:
		user, err := w.store.GetUser(ch.UserID)
		if err != nil {
			w.log.Warn("load user failed", "user_id", ch.UserID, "error", err)
			return
		}
		// a first analysis is only started by the user
		if !user.HasAnalysis() {
			return
		}
		w.debounce.Trigger(ch.UserID)

	case live.KIND_REFLECTIONS:
		user, err := w.store.GetUser(ch.UserID)
		if err != nil {
			w.log.Warn("load user failed", "user_id", ch.UserID, "error", err)
			return
		}
		// with no analysis yet LastAnalysisCount is zero, so the fifth record starts the first one
		count, err := w.store.CountReflections(ch.UserID)
		if err != nil {
			w.log.Warn("count reflections failed", "user_id", ch.UserID, "error", err)
			return
		}
		if insights.ShouldReanalyze(count, user.LastAnalysisCount) {
			w.start(ch.UserID, insights.PERSONA_TRIGGER_RECORDS)
		}
	}
}

// RunNow synthesizes in the caller's goroutine under the same per-user guard
// as the automatic runs.
func (w *PersonaWatcher) RunNow(ctx context.Context, userID int64) (models.Persona, error) {
	if !w.inflight.TryAcquire(userID) {
		return models.Persona{}, ErrSynthesisBusy
	}
	defer w.inflight.Release(userID)
	return w.synth.Synthesize(ctx, userID, insights.PERSONA_TRIGGER_MANUAL)
}

// start returns false when a synthesis for the user is already running.
func (w *PersonaWatcher) start(userID int64, trigger string) bool {
	if !w.inflight.TryAcquire(userID) {
		return false
	}
	go func() {
		defer w.inflight.Release(userID)
		_, err := w.synth.Synthesize(w.ctx, userID, trigger)
		if err == nil || errors.Is(err, insights.ErrNoReflections) {
			return
		}
		w.feed.Publish(live.Change{
			UserID:  userID,
			Kind:    live.KIND_NOTICE,
			Message: "Falha ao atualizar a persona. A análise anterior foi mantida.",
		})
	}()
	return true
}

func (w *PersonaWatcher) Busy(userID int64) bool {
	return w.inflight.Has(userID)
}
