package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Structured columns are stored as JSON text so both sqlite and postgres
// can hold them without dialect specific types.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// StringList is an ordered list of strings (tags, interests).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src any) error {
	*l = nil
	var out []string
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Persona is the synthesized trait/summary profile.
type Persona struct {
	Traits  []string `json:"traits"`
	Summary string   `json:"summary"`
}

func (p Persona) Value() (driver.Value, error) { return jsonValue(p) }
func (p *Persona) Scan(src any) error          { return jsonScan(src, p) }

// LinkedInProfile is the professional-network import written by the sync endpoint.
type LinkedInProfile struct {
	Name            string     `json:"name"`
	Headline        string     `json:"headline"`
	About           string     `json:"about"`
	DeepProfileText string     `json:"deep_profile_text"`
	ProfileURL      string     `json:"profile_url"`
	ScrapedAt       *time.Time `json:"scraped_at"`
}

func (p LinkedInProfile) Value() (driver.Value, error) { return jsonValue(p) }
func (p *LinkedInProfile) Scan(src any) error          { return jsonScan(src, p) }

// RadarCard is one growth suggestion.
type RadarCard struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionItem  string `json:"actionItem"`
}

type RadarCards []RadarCard

func (c RadarCards) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return jsonValue([]RadarCard(c))
}

func (c *RadarCards) Scan(src any) error {
	*c = nil
	var out []RadarCard
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*c = out
	return nil
}

// BriefingCard is a titled block of the weekly briefing.
type BriefingCard struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Video struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
	Reason    string `json:"reason"`
}

// WeeklyRadar is the last generated weekly briefing.
type WeeklyRadar struct {
	DeepDive    BriefingCard `json:"deepDive"`
	Wildcard    BriefingCard `json:"wildcard"`
	Spark       BriefingCard `json:"spark"`
	Videos      []Video      `json:"videos"`
	GeneratedAt time.Time    `json:"generated_at"`
	Emailed     bool         `json:"emailed"`
}

func (w WeeklyRadar) Value() (driver.Value, error) { return jsonValue(w) }
func (w *WeeklyRadar) Scan(src any) error          { return jsonScan(src, w) }

type RoadmapPhase struct {
	Phase string   `json:"phase"`
	Items []string `json:"items"`
}

// Roadmap is the coaching plan attached to a pursuit.
type Roadmap struct {
	Assessment string         `json:"assessment"`
	Phases     []RoadmapPhase `json:"phases"`
}

func (r Roadmap) Value() (driver.Value, error) { return jsonValue(r) }
func (r *Roadmap) Scan(src any) error          { return jsonScan(src, r) }

type CoachingEntry struct {
	Role    string    `json:"role"` // "user" ou "coach"
	Text    string    `json:"text"`
	IsStuck bool      `json:"is_stuck,omitempty"`
	At      time.Time `json:"at"`
}

type CoachingLog []CoachingEntry

func (l CoachingLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]CoachingEntry(l))
}

func (l *CoachingLog) Scan(src any) error {
	*l = nil
	var out []CoachingEntry
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}
