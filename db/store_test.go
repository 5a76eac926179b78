package db

import (
	"sync"
	"testing"
	"time"

	"reflectionsmatch/live"
	"reflectionsmatch/models"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []live.Change
}

func (p *recordingPublisher) Publish(ch live.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, ch)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Kind)
	}
	return out
}

func newTestStore(t *testing.T) (*Store, *recordingPublisher) {
	t.Helper()
	conn, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, Migrate(conn))

	pub := &recordingPublisher{}
	return NewStore(conn, pub), pub
}

func newTestUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash"}
	require.NoError(t, s.CreateUser(&u))
	return u
}

func TestStore_ReflectionLifecycle(t *testing.T) {
	s, pub := newTestStore(t)
	u := newTestUser(t, s, "ana@example.com")

	r := models.Reflection{UserID: u.ID, ImageURL: "https://cdn/x.png", UserNote: "nota"}
	require.NoError(t, s.CreateReflection(&r))
	assert.NotZero(t, r.ID)
	assert.Equal(t, models.REFLECTION_SOURCE_CAPTURED, r.Source)

	n, err := s.CountReflections(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := s.ListUnenriched(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r.ID, pending[0].ID)

	require.NoError(t, s.SaveEnrichment(r.ID, "A diagram of Go channels", []string{"Go", "Concurrency"}))

	got, err := s.GetReflection(r.ID)
	require.NoError(t, err)
	assert.True(t, got.HasEnrichment())
	assert.Equal(t, models.StringList{"Go", "Concurrency"}, got.Tags)
	assert.NotNil(t, got.AnalyzedAt)
	assert.Equal(t, "nota", got.UserNote)

	pending, err = s.ListUnenriched(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.DeleteReflection(r.ID))
	_, err = s.GetReflection(r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteReflection(r.ID), ErrNotFound)

	assert.Equal(t, []string{live.KIND_REFLECTIONS, live.KIND_REFLECTIONS, live.KIND_REFLECTIONS}, pub.kinds())
}

func TestStore_CreateReflectionRequiresOwner(t *testing.T) {
	s, pub := newTestStore(t)
	assert.Error(t, s.CreateReflection(&models.Reflection{ImageURL: "x"}))
	assert.Empty(t, pub.kinds())
}

func TestStore_ListReflectionsNewestFirstAndScoped(t *testing.T) {
	s, _ := newTestStore(t)
	ana := newTestUser(t, s, "ana@example.com")
	bia := newTestUser(t, s, "bia@example.com")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := models.Reflection{UserID: ana.ID, Title: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.CreateReflection(&r))
	}
	require.NoError(t, s.CreateReflection(&models.Reflection{UserID: bia.ID, Title: "other"}))

	items, err := s.ListReflections(ana.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].Title)
	assert.Equal(t, "a", items[2].Title)

	since, err := s.ListReflectionsSince(ana.ID, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "c", since[0].Title)
}

func TestStore_Pursuits(t *testing.T) {
	s, _ := newTestStore(t)
	u := newTestUser(t, s, "ana@example.com")

	p := models.Reflection{
		UserID: u.ID,
		Source: models.REFLECTION_SOURCE_RADAR,
		Title:  "Learn Rust",
		Status: models.PURSUIT_STATUS_NOT_STARTED,
	}
	require.NoError(t, s.CreateReflection(&p))
	require.NoError(t, s.CreateReflection(&models.Reflection{UserID: u.ID, Title: "Learn Rust"}))

	ok, err := s.HasPursuit(u.ID, "  learn rust ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasPursuit(u.ID, "Learn Zig")
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := s.ListPursuits(u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)

	roadmap := &models.Roadmap{Assessment: "ok", Phases: []models.RoadmapPhase{{Phase: "Week 1", Items: []string{"read the book"}}}}
	require.NoError(t, s.MergeReflection(p.ID, map[string]any{
		"roadmap": roadmap,
		"status":  models.PURSUIT_STATUS_IN_PROGRESS,
	}))
	got, err := s.GetReflection(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Roadmap)
	assert.Equal(t, "Week 1", got.Roadmap.Phases[0].Phase)
	assert.Equal(t, models.PURSUIT_STATUS_IN_PROGRESS, got.Status)
	assert.Equal(t, "Learn Rust", got.Title)
}

func TestStore_UserMerges(t *testing.T) {
	s, pub := newTestStore(t)
	u := newTestUser(t, s, "ana@example.com")

	byEmail, err := s.GetUserByEmail(" ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	require.NoError(t, s.MergeUser(u.ID, map[string]any{"tagline": "Builder"}))
	require.NoError(t, s.MergeExternalProfile(u.ID, map[string]any{"resume_text": "Go engineer"}))
	require.NoError(t, s.SetMilestone(u.ID, 10))

	got, err := s.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Builder", got.Tagline)
	assert.Equal(t, "Go engineer", got.ResumeText)
	require.NotNil(t, got.MilestoneFlag)
	assert.Equal(t, 10, *got.MilestoneFlag)

	require.NoError(t, s.ClearMilestone(u.ID))
	got, err = s.GetUser(u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MilestoneFlag)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SavePersona(u.ID, models.Persona{Traits: []string{"Curious"}, Summary: "s"}, at, 7))
	got, err = s.GetUser(u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Persona)
	assert.Equal(t, []string{"Curious"}, got.Persona.Traits)
	assert.True(t, got.HasAnalysis())
	assert.Equal(t, 7, got.LastAnalysisCount)

	assert.ErrorIs(t, s.MergeUser(9999, map[string]any{"tagline": "x"}), ErrNotFound)

	assert.Equal(t, []string{
		live.KIND_PROFILE,
		live.KIND_EXTERNAL_PROFILE,
		live.KIND_PROFILE,
		live.KIND_PROFILE,
		live.KIND_PROFILE,
	}, pub.kinds())
}

func TestStore_ListActiveUsersSkipsBlocked(t *testing.T) {
	s, _ := newTestStore(t)
	ana := newTestUser(t, s, "ana@example.com")
	bia := newTestUser(t, s, "bia@example.com")
	require.NoError(t, s.MergeUser(bia.ID, map[string]any{"status": models.USER_STATUS_BLOCKED}))

	users, err := s.ListActiveUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ana.ID, users[0].ID)
}

func TestStore_CountReflectionsPerDay(t *testing.T) {
	s, _ := newTestStore(t)
	u := newTestUser(t, s, "ana@example.com")

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, offset := range []int{0, 0, 1, 3} {
		r := models.Reflection{UserID: u.ID, CreatedAt: base.AddDate(0, 0, offset)}
		require.NoError(t, s.CreateReflection(&r))
	}
	outside := models.Reflection{UserID: u.ID, CreatedAt: base.AddDate(0, 0, 30)}
	require.NoError(t, s.CreateReflection(&outside))

	rows, err := s.CountReflectionsPerDay(u.ID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 7), "UTC")
	require.NoError(t, err)

	var total int64
	for _, r := range rows {
		total += r.Count
	}
	assert.Equal(t, int64(4), total)
	assert.Len(t, rows, 3)
}
