package models

import (
	"strings"
	"time"

	"reflectionsmatch/tools"
)

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_BLOCKED = 2

// User is the account profile. Auth identity and the pipeline's profile
// fields live on the same row; writes are column merges.
type User struct {
	ID          int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Email       string `gorm:"not null;unique" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
	Tagline     string `gorm:"column:tagline" json:"tagline"`
	PhotoURL    string `gorm:"column:photo_url" json:"photo_url"`
	Status      int    `gorm:"default:0" json:"status"`
	Admin       bool   `gorm:"not null; default: false" json:"admin"`

	LinkedInData     *LinkedInProfile `gorm:"column:linkedin_data;type:text" json:"linkedin_data"`
	LinkedInSyncedAt *time.Time       `gorm:"column:linkedin_synced_at" json:"linkedin_synced_at"`
	ResumeText       string           `gorm:"column:resume_text;type:text" json:"resume_text,omitempty"`
	ResumeFileName   string           `gorm:"column:resume_file_name" json:"resume_file_name"`

	Persona           *Persona   `gorm:"column:persona;type:text" json:"persona"`
	LastAnalyzedAt    *time.Time `gorm:"column:last_analyzed_at" json:"last_analyzed_at"`
	LastAnalysisCount int        `gorm:"column:last_analysis_count;default:0" json:"last_analysis_count"`

	MilestoneFlag *int `gorm:"column:milestone_flag" json:"milestone_flag"`

	ExplicitInterests StringList   `gorm:"column:explicit_interests;type:text" json:"explicit_interests"`
	RadarSuggestions  RadarCards   `gorm:"column:radar_suggestions;type:text" json:"radar_suggestions"`
	LastRadarAt       *time.Time   `gorm:"column:last_radar_at" json:"last_radar_at"`
	WeeklyRadar       *WeeklyRadar `gorm:"column:weekly_radar;type:text" json:"weekly_radar"`
	WeeklyRadarAt     *time.Time   `gorm:"column:weekly_radar_at" json:"weekly_radar_at"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (user User) MissingFields() string {
	if strings.TrimSpace(user.Email) == "" {
		return "email"
	} else if user.Password == "" {
		return "password"
	} else if tools.CheckPassword(user.Password) != "" {
		return tools.CheckPassword(user.Password)
	}
	return ""
}

// HasAnalysis reports whether a persona synthesis has ever completed.
func (user User) HasAnalysis() bool {
	return user.LastAnalyzedAt != nil
}

// ProfessionalText returns the network profile text preferring the deep scrape.
func (user User) ProfessionalText() string {
	if user.LinkedInData == nil {
		return ""
	}
	if t := strings.TrimSpace(user.LinkedInData.DeepProfileText); t != "" {
		return t
	}
	return strings.TrimSpace(user.LinkedInData.Headline + "\n" + user.LinkedInData.About)
}
