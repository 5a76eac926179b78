package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

const suggestionReply = "```json\n" + `[
  {"type":"Deep Dive","title":"Spatial Audio","description":"Learn it.","actionItem":"Read one paper"},
  {"type":"Wildcard","title":"Jazz x Robotics","description":"Combine.","actionItem":"Build a toy"},
  {"type":"Spark","title":"Why now?","description":"Ask.","actionItem":"Journal"}
]` + "\n```"

const weeklyReplyJSON = `{
  "deepDive": {"title":"Sound","content":"You kept saving audio gear."},
  "wildcard": {"title":"Maps","content":"Old maps and synths."},
  "spark": {"title":"Try","content":"Record a loop."},
  "youtube": [
    {"keyword":"modular synth","reason":"You love sound."},
    {"keyword":"cartography","reason":"Maps again."},
    {"keyword":"third","reason":"never searched"}
  ]
}`

func TestRadar_SuggestStoresCards(t *testing.T) {
	store := newMemStore()
	store.users[1] = models.User{ID: 1, Persona: &models.Persona{Traits: []string{"Sound Designer"}}}
	_ = store.CreateReflection(&models.Reflection{UserID: 1, Summary: "A modular synth rack."})
	gen := &fakeGenerator{reply: suggestionReply}
	r := NewRadar(logger.Nop(), gen, store, nil, nil)

	cards, err := r.Suggest(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, RADAR_TYPE_WILDCARD, cards[1].Type)
	assert.Equal(t, "Read one paper", cards[0].ActionItem)

	u, _ := store.GetUser(1)
	assert.Len(t, u.RadarSuggestions, 3)

	prompt := gen.prompts[0].Prompt
	assert.Contains(t, prompt, "Sound Designer")
	assert.Contains(t, prompt, "A modular synth rack.")
	assert.Contains(t, prompt, "No professional data provided.")
}

func TestRadar_SuggestMalformedKeepsPrevious(t *testing.T) {
	store := newMemStore()
	prev := models.RadarCards{{Type: RADAR_TYPE_SPARK, Title: "old"}}
	store.users[1] = models.User{ID: 1, RadarSuggestions: prev}
	r := NewRadar(logger.Nop(), &fakeGenerator{reply: "not json"}, store, nil, nil)

	_, err := r.Suggest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMalformedReply)

	u, _ := store.GetUser(1)
	assert.Equal(t, prev, u.RadarSuggestions)
}

func TestSavePursuit_RejectsDuplicateTitle(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(logger.Nop(), store)
	card := models.RadarCard{Type: RADAR_TYPE_DEEP_DIVE, Title: "Deep Work", Description: "Focus.", ActionItem: "Block 2h"}

	pursuit, _, err := SavePursuit(rec, store, 1, card)
	require.NoError(t, err)
	assert.Equal(t, models.REFLECTION_SOURCE_RADAR, pursuit.Source)
	assert.Equal(t, models.PURSUIT_STATUS_NOT_STARTED, pursuit.Status)
	assert.Equal(t, models.StringList{"Radar", RADAR_TYPE_DEEP_DIVE}, pursuit.Tags)
	assert.Equal(t, "Focus.", pursuit.Summary)

	card.Title = "  deep work "
	_, _, err = SavePursuit(rec, store, 1, card)
	assert.ErrorIs(t, err, ErrDuplicatePursuit)

	// another user may hold the same title
	_, _, err = SavePursuit(rec, store, 2, card)
	assert.NoError(t, err)
}

func TestRadar_WeeklyNoData(t *testing.T) {
	store := newMemStore()
	store.users[1] = models.User{ID: 1, Email: "a@b.com"}
	gen := &fakeGenerator{reply: weeklyReplyJSON}
	mailer := &fakeMailer{}
	r := NewRadar(logger.Nop(), gen, store, &fakeVideos{}, mailer)

	res, err := r.Weekly(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, RADAR_STATUS_NO_DATA, res.Status)
	assert.Nil(t, res.Radar)
	assert.Equal(t, 0, gen.calls())
	assert.Empty(t, mailer.sent)
}

func TestRadar_WeeklyBriefing(t *testing.T) {
	store := newMemStore()
	store.users[1] = models.User{ID: 1, Email: "a@b.com"}
	_ = store.CreateReflection(&models.Reflection{UserID: 1, UserNote: "synths", Summary: "A synth."})
	videos := &fakeVideos{results: map[string]*tools.VideoResult{
		"modular synth": {Title: "Patch 101", Thumbnail: "https://i.ytimg.com/x.jpg", URL: "https://www.youtube.com/watch?v=abc"},
	}}
	mailer := &fakeMailer{}
	r := NewRadar(logger.Nop(), &fakeGenerator{reply: weeklyReplyJSON}, store, videos, mailer)

	res, err := r.Weekly(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, RADAR_STATUS_SUCCESS, res.Status)
	require.NotNil(t, res.Radar)
	assert.Equal(t, "Sound", res.Radar.DeepDive.Title)

	// only the top two keywords are searched; the second had no match
	assert.Equal(t, []string{"modular synth", "cartography"}, videos.keywords)
	require.Len(t, res.Radar.Videos, 1)
	assert.Equal(t, "You love sound.", res.Radar.Videos[0].Reason)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"a@b.com"}, mailer.sent[0].To)
	assert.Equal(t, "Seu briefing semanal do Reflections Radar", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "Patch 101")
	assert.True(t, res.Radar.Emailed)

	u, _ := store.GetUser(1)
	require.NotNil(t, u.WeeklyRadar)
	assert.Equal(t, "Record a loop.", u.WeeklyRadar.Spark.Content)
}

func TestRadar_WeeklyEmailFailureStillStores(t *testing.T) {
	store := newMemStore()
	store.users[1] = models.User{ID: 1, Email: "a@b.com"}
	_ = store.CreateReflection(&models.Reflection{UserID: 1, Summary: "x"})
	videos := &fakeVideos{err: errors.New("quota")}
	r := NewRadar(logger.Nop(), &fakeGenerator{reply: weeklyReplyJSON}, store, videos, &fakeMailer{err: errors.New("down")})

	res, err := r.Weekly(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.Radar.Emailed)
	assert.Empty(t, res.Radar.Videos)

	u, _ := store.GetUser(1)
	assert.NotNil(t, u.WeeklyRadar)
}

func TestRenderBriefingHTML(t *testing.T) {
	html, err := RenderBriefingHTML(models.WeeklyRadar{
		DeepDive: models.BriefingCard{Title: "Sound", Content: "Some **bold** idea. <script>alert(1)</script>"},
		Videos:   []models.Video{{Title: "A [great] talk", URL: "https://www.youtube.com/watch?v=1", Reason: "why"}},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Deep Dive: Sound</h2>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `href="https://www.youtube.com/watch?v=1"`)
	assert.Contains(t, html, "Insight: why")
	assert.False(t, strings.Contains(html, "Wildcard:"), "empty cards are skipped")
}
