package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"reflectionsmatch/live"
	"reflectionsmatch/models"

	"github.com/jinzhu/gorm"
)

var ErrNotFound = errors.New("not found")

// Store is the document store over the users and reflections tables. Every
// write publishes a change so live subscribers can reload.
type Store struct {
	db  *gorm.DB
	pub live.Publisher
}

func NewStore(db *gorm.DB, pub live.Publisher) *Store {
	return &Store{db: db, pub: pub}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) publish(userID int64, kind string) {
	if s.pub == nil || userID == 0 {
		return
	}
	s.pub.Publish(live.Change{UserID: userID, Kind: kind})
}

func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return err
}

// ------------------------------
// Reflections
// ------------------------------

func (s *Store) CreateReflection(r *models.Reflection) error {
	if r.UserID == 0 {
		return fmt.Errorf("reflection owner is required")
	}
	if r.Source == "" {
		r.Source = models.REFLECTION_SOURCE_CAPTURED
	}
	r.ID = 0
	if err := s.db.Create(r).Error; err != nil {
		return err
	}
	s.publish(r.UserID, live.KIND_REFLECTIONS)
	return nil
}

func (s *Store) GetReflection(id int64) (models.Reflection, error) {
	var r models.Reflection
	if err := s.db.First(&r, id).Error; err != nil {
		return models.Reflection{}, notFound(err)
	}
	return r, nil
}

// ListReflections returns every record of the user, newest first.
func (s *Store) ListReflections(userID int64) ([]models.Reflection, error) {
	var items []models.Reflection
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListReflectionsSince(userID int64, since time.Time) ([]models.Reflection, error) {
	var items []models.Reflection
	err := s.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at desc, id desc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListPursuits(userID int64) ([]models.Reflection, error) {
	var items []models.Reflection
	err := s.db.Where("user_id = ? AND source = ?", userID, models.REFLECTION_SOURCE_RADAR).
		Order("created_at desc, id desc").
		Find(&items).Error
	return items, err
}

func (s *Store) FindPursuitByTitle(userID int64, title string) (models.Reflection, error) {
	var r models.Reflection
	err := s.db.Where("user_id = ? AND source = ? AND lower(title) = ?",
		userID, models.REFLECTION_SOURCE_RADAR, strings.ToLower(strings.TrimSpace(title))).
		First(&r).Error
	if err != nil {
		return models.Reflection{}, notFound(err)
	}
	return r, nil
}

func (s *Store) HasPursuit(userID int64, title string) (bool, error) {
	_, err := s.FindPursuitByTitle(userID, title)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CountReflections is the server side aggregate used by the milestone policy.
func (s *Store) CountReflections(userID int64) (int, error) {
	var n int
	err := s.db.Model(&models.Reflection{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListUnenriched returns image records across users that still lack a summary, oldest first.
func (s *Store) ListUnenriched(limit int) ([]models.Reflection, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.Reflection
	err := s.db.
		Where("(summary IS NULL OR summary = '') AND image_url IS NOT NULL AND image_url <> ''").
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// MergeReflection updates only the given columns.
func (s *Store) MergeReflection(id int64, fields map[string]any) error {
	r, err := s.GetReflection(id)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	res := s.db.Model(&models.Reflection{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	s.publish(r.UserID, live.KIND_REFLECTIONS)
	return nil
}

// SaveEnrichment merges summary, tags and the analysis time onto the record.
func (s *Store) SaveEnrichment(id int64, summary string, tags []string) error {
	now := time.Now()
	return s.MergeReflection(id, map[string]any{
		"summary":     summary,
		"tags":        models.StringList(tags),
		"analyzed_at": &now,
	})
}

func (s *Store) DeleteReflection(id int64) error {
	r, err := s.GetReflection(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Reflection{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.publish(r.UserID, live.KIND_REFLECTIONS)
	return nil
}

type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CountReflectionsPerDay groups the user's records by local day in [from, to).
func (s *Store) CountReflectionsPerDay(userID int64, from, to time.Time, tz string) ([]DailyCount, error) {
	dialect := strings.ToLower(s.db.Dialect().GetName())

	dayExpr := "date(created_at)"
	if strings.Contains(dialect, "sqlite") {
		dayExpr = "strftime('%Y-%m-%d', created_at, 'localtime')"
	} else if strings.Contains(dialect, "postgres") {
		if tz == "" {
			tz = "UTC"
		}
		dayExpr = fmt.Sprintf("to_char(date_trunc('day', created_at AT TIME ZONE '%s'), 'YYYY-MM-DD')", strings.ReplaceAll(tz, "'", ""))
	}

	var rows []DailyCount
	err := s.db.Model(&models.Reflection{}).
		Select(dayExpr+" as day, count(*) as count").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Group("day").
		Order("day asc").
		Scan(&rows).Error
	return rows, err
}

// ------------------------------
// Users
// ------------------------------

func (s *Store) CreateUser(u *models.User) error {
	return s.db.Create(u).Error
}

func (s *Store) GetUser(id int64) (models.User, error) {
	var u models.User
	if err := s.db.First(&u, id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (models.User, error) {
	var u models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) ListActiveUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Where("status = ?", models.USER_STATUS_AVAILABLE).Order("id asc").Find(&users).Error
	return users, err
}

func (s *Store) mergeUser(id int64, fields map[string]any, kind string) error {
	if len(fields) == 0 {
		return nil
	}
	res := s.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publish(id, kind)
	return nil
}

// MergeUser merges user-editable and bookkeeping fields.
func (s *Store) MergeUser(id int64, fields map[string]any) error {
	return s.mergeUser(id, fields, live.KIND_PROFILE)
}

// MergeExternalProfile is used by the professional-network sync and resume
// upload; subscribers see an external_profile change.
func (s *Store) MergeExternalProfile(id int64, fields map[string]any) error {
	return s.mergeUser(id, fields, live.KIND_EXTERNAL_PROFILE)
}

func (s *Store) SetMilestone(userID int64, threshold int) error {
	return s.MergeUser(userID, map[string]any{"milestone_flag": threshold})
}

func (s *Store) ClearMilestone(userID int64) error {
	return s.MergeUser(userID, map[string]any{"milestone_flag": gorm.Expr("NULL")})
}

// SavePersona persists the synthesis result with its bookkeeping.
func (s *Store) SavePersona(userID int64, persona models.Persona, at time.Time, recordCount int) error {
	return s.MergeUser(userID, map[string]any{
		"persona":             &persona,
		"last_analyzed_at":    &at,
		"last_analysis_count": recordCount,
	})
}
