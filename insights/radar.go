package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

const (
	radarWindow          = 7 * 24 * time.Hour
	radarVideoKeywords   = 2
	radarRecentSummaries = 5
	radarResumeBudget    = 1000
)

/************************************************
/**** MARK: RADAR CARD TYPES ****/
/************************************************/
const RADAR_TYPE_DEEP_DIVE = "Deep Dive"
const RADAR_TYPE_WILDCARD = "Wildcard"
const RADAR_TYPE_SPARK = "Spark"

const RADAR_STATUS_SUCCESS = "success"
const RADAR_STATUS_NO_DATA = "no-data"

var ErrDuplicatePursuit = errors.New("já existe uma pursuit com esse título")

type RadarStore interface {
	GetUser(id int64) (models.User, error)
	ListReflections(userID int64) ([]models.Reflection, error)
	ListReflectionsSince(userID int64, since time.Time) ([]models.Reflection, error)
	MergeUser(id int64, fields map[string]any) error
}

// Radar produces growth suggestions and the weekly briefing.
type Radar struct {
	log    *logger.Logger
	gen    tools.Generator
	store  RadarStore
	videos tools.VideoSearcher
	mailer tools.Mailer
	now    func() time.Time
}

// NewRadar builds a Radar; videos and mailer may be nil when not configured.
func NewRadar(log *logger.Logger, gen tools.Generator, store RadarStore, videos tools.VideoSearcher, mailer tools.Mailer) *Radar {
	return &Radar{
		log:    log.With("component", "Radar"),
		gen:    gen,
		store:  store,
		videos: videos,
		mailer: mailer,
		now:    time.Now,
	}
}

// Suggest generates three growth cards and stores them on the user.
func (r *Radar) Suggest(ctx context.Context, userID int64) (models.RadarCards, error) {
	user, err := r.store.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	records, err := r.store.ListReflections(userID)
	if err != nil {
		return nil, fmt.Errorf("load reflections: %w", err)
	}

	reply, err := generate(ctx, r.gen, "radar_suggestions", tools.GenerateRequest{
		Prompt: buildSuggestionPrompt(user, records),
	})
	if err != nil {
		radarTotal.WithLabelValues("suggestions", "failed").Inc()
		return nil, err
	}
	cards, err := ExtractJSON[models.RadarCards](reply)
	if err != nil {
		radarTotal.WithLabelValues("suggestions", "failed").Inc()
		return nil, err
	}
	cards = cleanCards(cards)
	if len(cards) == 0 {
		radarTotal.WithLabelValues("suggestions", "failed").Inc()
		return nil, fmt.Errorf("%w: no cards", ErrMalformedReply)
	}

	now := r.now()
	if err := r.store.MergeUser(userID, map[string]any{
		"radar_suggestions": cards,
		"last_radar_at":     &now,
	}); err != nil {
		return nil, fmt.Errorf("save suggestions: %w", err)
	}
	radarTotal.WithLabelValues("suggestions", "succeeded").Inc()
	return cards, nil
}

func cleanCards(cards models.RadarCards) models.RadarCards {
	out := make(models.RadarCards, 0, len(cards))
	for _, c := range cards {
		c.Title = strings.TrimSpace(c.Title)
		c.Type = strings.TrimSpace(c.Type)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func buildSuggestionPrompt(user models.User, records []models.Reflection) string {
	professional := ProfessionalContext(user, radarResumeBudget, ProfileTextBudget)
	if professional == "" {
		professional = "No professional data provided."
	}
	traits := "No traits analyzed yet."
	if user.Persona != nil && len(user.Persona.Traits) > 0 {
		traits = strings.Join(user.Persona.Traits, ", ")
	}
	if len(user.ExplicitInterests) > 0 {
		traits += "\nStated interests: " + strings.Join(user.ExplicitInterests, ", ")
	}

	var recent []string
	for _, rec := range records {
		if rec.Summary == "" {
			continue
		}
		recent = append(recent, "- "+rec.Summary)
		if len(recent) == radarRecentSummaries {
			break
		}
	}
	activity := "No recent reflections."
	if len(recent) > 0 {
		activity = strings.Join(recent, "\n")
	}

	return `Act as a Visionary Career & Creativity Coach.

USER PROFILE:
` + professional + `

CORE TRAITS:
` + traits + `

RECENT INTERESTS:
` + activity + `

TASK:
Generate 3 distinct 'Growth Cards' for this user to explore this week.
1. 'Deep Dive': a specific skill, methodology or professional topic they should master to level up.
2. 'Wildcard': a surprising, creative intersection of their hobbies and interests.
3. 'Spark': a deep question or mental model challenge related to their work or life.

RETURN A JSON ARRAY (no markdown):
[
  {"type": "Deep Dive", "title": "Short Punchy Title", "description": "2 sentences on why and how to start.", "actionItem": "A concrete first step"}
]`
}

type PursuitIndex interface {
	HasPursuit(userID int64, title string) (bool, error)
}

// SavePursuit turns a suggestion card into a tracked radar record. Titles are
// unique per user, compared case-insensitively.
func SavePursuit(rec *Recorder, index PursuitIndex, userID int64, card models.RadarCard) (models.Reflection, int, error) {
	title := strings.TrimSpace(card.Title)
	if title == "" {
		return models.Reflection{}, 0, fmt.Errorf("%w: title é obrigatório", ErrInvalidArgument)
	}
	dup, err := index.HasPursuit(userID, title)
	if err != nil {
		return models.Reflection{}, 0, err
	}
	if dup {
		return models.Reflection{}, 0, ErrDuplicatePursuit
	}

	tags := models.StringList{"Radar"}
	if t := strings.TrimSpace(card.Type); t != "" {
		tags = append(tags, t)
	}
	pursuit := models.Reflection{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(card.Description),
		ActionItem:  strings.TrimSpace(card.ActionItem),
		RadarType:   strings.TrimSpace(card.Type),
		Summary:     strings.TrimSpace(card.Description),
		Tags:        tags,
		Source:      models.REFLECTION_SOURCE_RADAR,
		Status:      models.PURSUIT_STATUS_NOT_STARTED,
	}
	milestone, err := rec.Create(&pursuit)
	if err != nil {
		return models.Reflection{}, 0, err
	}
	return pursuit, milestone, nil
}

// ------------------------------
// Weekly briefing
// ------------------------------

type WeeklyResult struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Radar   *models.WeeklyRadar `json:"data,omitempty"`
}

type weeklyKeyword struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

type weeklyReply struct {
	DeepDive models.BriefingCard `json:"deepDive"`
	Wildcard models.BriefingCard `json:"wildcard"`
	Spark    models.BriefingCard `json:"spark"`
	YouTube  []weeklyKeyword     `json:"youtube"`
}

// Weekly runs the weekly briefing for one user: recent records, briefing
// cards, video discovery, persistence and email.
func (r *Radar) Weekly(ctx context.Context, userID int64) (WeeklyResult, error) {
	user, err := r.store.GetUser(userID)
	if err != nil {
		return WeeklyResult{}, fmt.Errorf("load user: %w", err)
	}
	now := r.now()
	since := now.Add(-radarWindow)
	records, err := r.store.ListReflectionsSince(userID, since)
	if err != nil {
		return WeeklyResult{}, fmt.Errorf("load reflections: %w", err)
	}
	if len(records) == 0 {
		radarTotal.WithLabelValues("weekly", "no_data").Inc()
		return WeeklyResult{Status: RADAR_STATUS_NO_DATA, Message: "Reflexões insuficientes (é preciso pelo menos 1)."}, nil
	}

	reply, err := generate(ctx, r.gen, "radar_weekly", tools.GenerateRequest{
		Prompt: buildWeeklyPrompt(user, records),
	})
	if err != nil {
		radarTotal.WithLabelValues("weekly", "failed").Inc()
		return WeeklyResult{}, err
	}
	parsed, err := ExtractJSON[weeklyReply](reply)
	if err != nil {
		radarTotal.WithLabelValues("weekly", "failed").Inc()
		return WeeklyResult{}, err
	}

	radar := &models.WeeklyRadar{
		DeepDive:    parsed.DeepDive,
		Wildcard:    parsed.Wildcard,
		Spark:       parsed.Spark,
		Videos:      r.searchVideos(ctx, parsed.YouTube, since),
		GeneratedAt: now,
	}

	if r.mailer != nil && user.Email != "" {
		radar.Emailed = r.email(ctx, user, *radar)
	}

	if err := r.store.MergeUser(userID, map[string]any{
		"weekly_radar":    radar,
		"weekly_radar_at": &now,
	}); err != nil {
		radarTotal.WithLabelValues("weekly", "failed").Inc()
		return WeeklyResult{}, fmt.Errorf("save weekly radar: %w", err)
	}
	radarTotal.WithLabelValues("weekly", "succeeded").Inc()
	return WeeklyResult{Status: RADAR_STATUS_SUCCESS, Radar: radar}, nil
}

func (r *Radar) searchVideos(ctx context.Context, keywords []weeklyKeyword, since time.Time) []models.Video {
	videos := []models.Video{}
	if r.videos == nil {
		return videos
	}
	if len(keywords) > radarVideoKeywords {
		keywords = keywords[:radarVideoKeywords]
	}
	for _, kw := range keywords {
		res, err := r.videos.SearchRecent(ctx, kw.Keyword, since)
		if err != nil {
			r.log.Warn("video search failed", "keyword", kw.Keyword, "error", err)
			continue
		}
		if res == nil {
			continue
		}
		videos = append(videos, models.Video{
			Title:     res.Title,
			Thumbnail: res.Thumbnail,
			URL:       res.URL,
			Reason:    kw.Reason,
		})
	}
	return videos
}

func (r *Radar) email(ctx context.Context, user models.User, radar models.WeeklyRadar) bool {
	html, err := RenderBriefingHTML(radar)
	if err != nil {
		r.log.Warn("briefing render failed", "user_id", user.ID, "error", err)
		return false
	}
	id, err := r.mailer.Send(ctx, tools.Email{
		To:      []string{user.Email},
		Subject: "Seu briefing semanal do Reflections Radar",
		HTML:    html,
	})
	if err != nil {
		r.log.Warn("briefing email failed", "user_id", user.ID, "error", err)
		return false
	}
	r.log.Info("briefing email sent", "user_id", user.ID, "delivery_id", id)
	return true
}

func buildWeeklyPrompt(user models.User, records []models.Reflection) string {
	traits := "General User"
	if user.Persona != nil && len(user.Persona.Traits) > 0 {
		if b, err := json.Marshal(user.Persona.Traits); err == nil {
			traits = string(b)
		}
	}
	var blocks []string
	for _, rec := range records {
		blocks = append(blocks, fmt.Sprintf("Date: %s\nNotes: %s\nSummary: %s",
			rec.CreatedAt.Format("Mon Jan 02 2006"), rec.UserNote, rec.Summary))
	}

	return `You are providing a weekly strategic briefing called "Reflections Radar".
User Traits: ` + traits + `

Reflections from the past week:
` + strings.Join(blocks, "\n\n") + `

Task:
1. Generate 3 distinct Radar Cards:
   - Deep Dive: a strategic analysis of the week's dominant theme.
   - Wildcard: an unexpected connection or latent pattern.
   - Spark: a creative idea or action for next week.
2. Extract 3 search keywords for YouTube discovery based on high-interest topics.
3. For each keyword, give a one sentence reason explaining why the topic matters to this user given their traits.

Output valid JSON:
{
  "deepDive": {"title": "...", "content": "..."},
  "wildcard": {"title": "...", "content": "..."},
  "spark": {"title": "...", "content": "..."},
  "youtube": [{"keyword": "...", "reason": "..."}]
}`
}
