package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: REFLECTION SOURCE ****/
/************************************************/
const REFLECTION_SOURCE_CAPTURED = "captured"
const REFLECTION_SOURCE_MANUAL_UPLOAD = "manual_upload"
const REFLECTION_SOURCE_RADAR = "radar"

/************************************************
/**** MARK: PURSUIT STATUS ****/
/************************************************/
const PURSUIT_STATUS_NOT_STARTED = "not_started"
const PURSUIT_STATUS_IN_PROGRESS = "in_progress"
const PURSUIT_STATUS_STUCK = "stuck"
const PURSUIT_STATUS_COMPLETED = "completed"
const PURSUIT_STATUS_ARCHIVED = "archived"

// Reflection is one captured or saved unit of user content.
// Summary and Tags together form the enrichment; an empty summary means the
// record has not been analyzed yet.
type Reflection struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID     int64      `gorm:"not null;index" json:"user_id"`
	ImageURL   string     `gorm:"column:image_url" json:"image_url"`
	ImageKey   string     `gorm:"column:image_key" json:"-"`
	UserNote   string     `gorm:"column:user_note;type:text" json:"user_note"`
	SourceURL  string     `gorm:"column:source_url" json:"source_url"`
	Title      string     `gorm:"column:title" json:"title"`
	Summary    string     `gorm:"column:summary;type:text" json:"summary"`
	Tags       StringList `gorm:"column:tags;type:text" json:"tags"`
	AnalyzedAt *time.Time `gorm:"column:analyzed_at" json:"analyzed_at"`
	Source     string     `gorm:"column:source;not null;default:'captured'" json:"source"`

	// pursuit fields, only meaningful when Source is radar
	Status      string      `gorm:"column:status" json:"status,omitempty"`
	RadarType   string      `gorm:"column:radar_type" json:"radar_type,omitempty"`
	Description string      `gorm:"column:description;type:text" json:"description,omitempty"`
	ActionItem  string      `gorm:"column:action_item;type:text" json:"action_item,omitempty"`
	TargetDate  string      `gorm:"column:target_date" json:"target_date,omitempty"`
	Roadmap     *Roadmap    `gorm:"column:roadmap;type:text" json:"roadmap,omitempty"`
	CoachingLog CoachingLog `gorm:"column:coaching_log;type:text" json:"coaching_log,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Reflection) HasEnrichment() bool {
	return strings.TrimSpace(r.Summary) != ""
}

func (r Reflection) HasContent() bool {
	return strings.TrimSpace(r.ImageURL) != ""
}

func IsValidPursuitStatus(s string) bool {
	switch s {
	case PURSUIT_STATUS_NOT_STARTED, PURSUIT_STATUS_IN_PROGRESS, PURSUIT_STATUS_STUCK,
		PURSUIT_STATUS_COMPLETED, PURSUIT_STATUS_ARCHIVED:
		return true
	}
	return false
}
