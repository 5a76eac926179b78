package workers

import (
	"context"
	"fmt"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/logger"
	"reflectionsmatch/models"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

type WeeklyBriefer interface {
	Weekly(ctx context.Context, userID int64) (insights.WeeklyResult, error)
}

type UserLister interface {
	ListActiveUsers() ([]models.User, error)
}

// RadarScheduler produces the weekly briefing for every active user on a
// cron schedule.
type RadarScheduler struct {
	log         *logger.Logger
	radar       WeeklyBriefer
	users       UserLister
	parallelism int
	scheduler   gocron.Scheduler
}

func NewRadarScheduler(log *logger.Logger, radar WeeklyBriefer, users UserLister, parallelism int) *RadarScheduler {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &RadarScheduler{
		log:         log.With("component", "RadarScheduler"),
		radar:       radar,
		users:       users,
		parallelism: parallelism,
	}
}

// Start registers the cron job; an empty schedule leaves the job off.
func (s *RadarScheduler) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		s.log.Info("weekly radar schedule disabled")
		return nil
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			if _, err := s.RunAll(ctx); err != nil {
				s.log.Error("weekly radar run failed", "error", err)
			}
		}),
		gocron.WithName("weekly_radar"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("register weekly radar job: %w", err)
	}
	scheduler.Start()
	s.scheduler = scheduler
	s.log.Info("weekly radar scheduled", "cron", schedule)
	return nil
}

func (s *RadarScheduler) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// RunSummary counts the outcomes of one pass over the users.
type RunSummary struct {
	Briefed int `json:"briefed"`
	NoData  int `json:"no_data"`
	Failed  int `json:"failed"`
}

// RunAll briefs every active user with bounded parallelism. One user's
// failure does not stop the others.
func (s *RadarScheduler) RunAll(ctx context.Context) (RunSummary, error) {
	users, err := s.users.ListActiveUsers()
	if err != nil {
		return RunSummary{}, fmt.Errorf("list users: %w", err)
	}

	results := make([]string, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, u := range users {
		g.Go(func() error {
			res, err := s.radar.Weekly(gctx, u.ID)
			if err != nil {
				s.log.Warn("weekly radar failed", "user_id", u.ID, "error", err)
				results[i] = "failed"
				return nil
			}
			results[i] = res.Status
			return nil
		})
	}
	_ = g.Wait()

	var sum RunSummary
	for _, r := range results {
		switch r {
		case insights.RADAR_STATUS_SUCCESS:
			sum.Briefed++
		case insights.RADAR_STATUS_NO_DATA:
			sum.NoData++
		default:
			sum.Failed++
		}
	}
	s.log.Info("weekly radar pass done", "briefed", sum.Briefed, "no_data", sum.NoData, "failed", sum.Failed)
	return sum, nil
}
