package insights

import (
	"strconv"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
)

// MilestoneThresholds are the record counts that unlock a one-time celebration.
var MilestoneThresholds = []int{10, 25, 50, 100}

// MilestoneFor reports the threshold reached when a user's total becomes newCount.
func MilestoneFor(newCount int) (int, bool) {
	for _, t := range MilestoneThresholds {
		if newCount == t {
			return t, true
		}
	}
	return 0, false
}

type RecordStore interface {
	CountReflections(userID int64) (int, error)
	CreateReflection(r *models.Reflection) error
	SetMilestone(userID int64, threshold int) error
}

// Recorder is the single creation path for reflections; it applies the
// milestone policy after each successful write.
type Recorder struct {
	log   *logger.Logger
	store RecordStore
}

func NewRecorder(log *logger.Logger, store RecordStore) *Recorder {
	return &Recorder{log: log.With("component", "Recorder"), store: store}
}

// Create persists rec and returns the milestone it unlocked, if any. The
// count is taken before the write, so two concurrent writers on one account
// can both see the same count.
func (r *Recorder) Create(rec *models.Reflection) (int, error) {
	before, countErr := r.store.CountReflections(rec.UserID)
	if countErr != nil {
		r.log.Warn("reflection count failed, skipping milestone", "user_id", rec.UserID, "error", countErr)
	}

	if err := r.store.CreateReflection(rec); err != nil {
		return 0, err
	}
	if countErr != nil {
		return 0, nil
	}

	threshold, ok := MilestoneFor(before + 1)
	if !ok {
		return 0, nil
	}
	if err := r.store.SetMilestone(rec.UserID, threshold); err != nil {
		r.log.Warn("milestone write failed", "user_id", rec.UserID, "threshold", threshold, "error", err)
		return 0, nil
	}
	milestonesTotal.WithLabelValues(strconv.Itoa(threshold)).Inc()
	return threshold, nil
}
