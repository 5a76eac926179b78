package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

// gateEnricher blocks every Enrich call until release is closed.
type gateEnricher struct {
	mu      sync.Mutex
	calls   map[int64]int
	release chan struct{}
	err     error
}

func newGateEnricher() *gateEnricher {
	return &gateEnricher{calls: map[int64]int{}, release: make(chan struct{})}
}

func (g *gateEnricher) Enrich(ctx context.Context, rec models.Reflection) error {
	g.mu.Lock()
	g.calls[rec.ID]++
	g.mu.Unlock()
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.err
}

func (g *gateEnricher) callsFor(id int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[id]
}

type recordStore struct {
	mu      sync.Mutex
	records map[int64]models.Reflection
	users   map[int64]models.User
}

func newRecordStore(records ...models.Reflection) *recordStore {
	s := &recordStore{records: map[int64]models.Reflection{}, users: map[int64]models.User{}}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *recordStore) ListReflections(userID int64) ([]models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reflection
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordStore) ListUnenriched(limit int) ([]models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reflection
	for _, r := range s.records {
		if !r.HasEnrichment() && r.HasContent() && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordStore) SaveEnrichment(id int64, summary string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return errors.New("not found")
	}
	r.Summary = summary
	r.Tags = tags
	s.records[id] = r
	return nil
}

func (s *recordStore) get(id int64) models.Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *recordStore) GetUser(id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

func (s *recordStore) CountReflections(userID int64) (int, error) {
	recs, _ := s.ListReflections(userID)
	return len(recs), nil
}

func (s *recordStore) ListActiveUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

type brokenFetcher struct{}

func (brokenFetcher) Fetch(context.Context, string) (tools.InlineImage, error) {
	return tools.InlineImage{}, errors.New("connection reset mid-fetch")
}

type staticGenerator struct{ reply string }

func (g staticGenerator) Generate(context.Context, tools.GenerateRequest) (string, error) {
	return g.reply, nil
}

type okFetcher struct{}

func (okFetcher) Fetch(context.Context, string) (tools.InlineImage, error) {
	return tools.InlineImage{MIMEType: "image/png", Data: []byte("png")}, nil
}

// fakeSynth counts syntheses and can hold them open.
type fakeSynth struct {
	mu       sync.Mutex
	calls    []string
	err      error
	hold     chan struct{}
	finished chan struct{}
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{finished: make(chan struct{}, 16)}
}

func (f *fakeSynth) Synthesize(ctx context.Context, userID int64, trigger string) (models.Persona, error) {
	f.mu.Lock()
	f.calls = append(f.calls, trigger)
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	defer func() { f.finished <- struct{}{} }()
	return models.Persona{}, f.err
}

func (f *fakeSynth) triggers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeBriefer struct {
	mu      sync.Mutex
	results map[int64]insights.WeeklyResult
	errs    map[int64]error
	seen    []int64
}

func (f *fakeBriefer) Weekly(_ context.Context, userID int64) (insights.WeeklyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, userID)
	if err := f.errs[userID]; err != nil {
		return insights.WeeklyResult{}, err
	}
	return f.results[userID], nil
}

var waitFor = 2 * time.Second
