package insights

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

// memStore is an in-memory stand-in for the document store.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	reflections map[int64]models.Reflection
	users       map[int64]models.User
	countErr    error
	saveCalls   int
}

func newMemStore() *memStore {
	return &memStore{reflections: map[int64]models.Reflection{}, users: map[int64]models.User{}}
}

func (m *memStore) CountReflections(userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, r := range m.reflections {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateReflection(r *models.Reflection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.reflections[r.ID] = *r
	return nil
}

func (m *memStore) DeleteReflection(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reflections, id)
}

func (m *memStore) SetMilestone(userID int64, threshold int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.ID = userID
	v := threshold
	u.MilestoneFlag = &v
	m.users[userID] = u
	return nil
}

func (m *memStore) ClearMilestone(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.MilestoneFlag = nil
	m.users[userID] = u
}

func (m *memStore) SaveEnrichment(id int64, summary string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	r, ok := m.reflections[id]
	if !ok {
		return errors.New("not found")
	}
	r.Summary = summary
	r.Tags = tags
	m.reflections[id] = r
	return nil
}

func (m *memStore) GetUser(id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

func (m *memStore) ListReflections(userID int64) ([]models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reflection
	for _, r := range m.reflections {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListReflectionsSince(userID int64, since time.Time) ([]models.Reflection, error) {
	all, _ := m.ListReflections(userID)
	var out []models.Reflection
	for _, r := range all {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) SavePersona(userID int64, persona models.Persona, at time.Time, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Persona = &persona
	u.LastAnalyzedAt = &at
	u.LastAnalysisCount = count
	m.users[userID] = u
	return nil
}

func (m *memStore) MergeUser(id int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	if v, ok := fields["radar_suggestions"].(models.RadarCards); ok {
		u.RadarSuggestions = v
	}
	if v, ok := fields["weekly_radar"].(*models.WeeklyRadar); ok {
		u.WeeklyRadar = v
	}
	m.users[id] = u
	return nil
}

func (m *memStore) reflection(id int64) models.Reflection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reflections[id]
}

// fakeGenerator returns canned replies and records prompts.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []tools.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req tools.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req)
	return g.reply, g.err
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) Fetch(_ context.Context, _ string) (tools.InlineImage, error) {
	if f.err != nil {
		return tools.InlineImage{}, f.err
	}
	return tools.InlineImage{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func (m *memStore) HasPursuit(userID int64, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reflections {
		if r.UserID == userID && r.Source == models.REFLECTION_SOURCE_RADAR && strings.EqualFold(r.Title, strings.TrimSpace(title)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MergeReflection(id int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reflections[id]
	if !ok {
		return errors.New("not found")
	}
	if v, ok := fields["roadmap"].(*models.Roadmap); ok {
		r.Roadmap = v
	}
	if v, ok := fields["coaching_log"].(models.CoachingLog); ok {
		r.CoachingLog = v
	}
	if v, ok := fields["status"].(string); ok {
		r.Status = v
	}
	if v, ok := fields["target_date"].(string); ok {
		r.TargetDate = v
	}
	m.reflections[id] = r
	return nil
}

// fakeVideos maps keywords to results.
type fakeVideos struct {
	mu       sync.Mutex
	results  map[string]*tools.VideoResult
	err      error
	keywords []string
}

func (f *fakeVideos) SearchRecent(_ context.Context, keyword string, _ time.Time) (*tools.VideoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[keyword], nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []tools.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, email tools.Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, email)
	return "msg_1", nil
}
