package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
)

func TestMilestoneFor(t *testing.T) {
	for n := 0; n <= 120; n++ {
		got, ok := MilestoneFor(n)
		switch n {
		case 10, 25, 50, 100:
			assert.True(t, ok, "count %d", n)
			assert.Equal(t, n, got)
		default:
			assert.False(t, ok, "count %d", n)
		}
	}
}

func TestRecorder_TenthRecordSetsMilestone(t *testing.T) {
	store := newMemStore()
	r := NewRecorder(logger.Nop(), store)

	for i := 0; i < 9; i++ {
		got, err := r.Create(&models.Reflection{UserID: 7})
		require.NoError(t, err)
		assert.Zero(t, got)
	}
	_, err := store.GetUser(7)
	assert.Error(t, err, "no milestone write before the tenth record")

	got, err := r.Create(&models.Reflection{UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	u, err := store.GetUser(7)
	require.NoError(t, err)
	require.NotNil(t, u.MilestoneFlag)
	assert.Equal(t, 10, *u.MilestoneFlag)
}

func TestRecorder_ClearedFlagStaysClearedUntilNextThreshold(t *testing.T) {
	store := newMemStore()
	r := NewRecorder(logger.Nop(), store)
	for i := 0; i < 10; i++ {
		_, err := r.Create(&models.Reflection{UserID: 1})
		require.NoError(t, err)
	}
	store.ClearMilestone(1)

	for i := 0; i < 14; i++ {
		_, err := r.Create(&models.Reflection{UserID: 1})
		require.NoError(t, err)
	}
	u, _ := store.GetUser(1)
	assert.Nil(t, u.MilestoneFlag)

	got, err := r.Create(&models.Reflection{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 25, got)
	u, _ = store.GetUser(1)
	require.NotNil(t, u.MilestoneFlag)
	assert.Equal(t, 25, *u.MilestoneFlag)
}

func TestRecorder_CountFailureStillCreates(t *testing.T) {
	store := newMemStore()
	store.countErr = errors.New("aggregate unavailable")
	r := NewRecorder(logger.Nop(), store)

	rec := &models.Reflection{UserID: 3}
	got, err := r.Create(rec)
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.NotZero(t, rec.ID)
}
