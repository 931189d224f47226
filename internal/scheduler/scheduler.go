package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// JobTimeout bounds a single refresh run.
const JobTimeout = 30 * time.Second

// Refresher re-fetches recently searched cities. *weather.Service implements it.
type Refresher interface {
	Refresh(ctx context.Context) int
}

// Scheduler periodically warms the query cache for recent searches.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A zero interval disables it.
func New(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.refresher == nil {
		s.logger.Info("scheduler: background refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.logger.Debug("scheduler: running refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
	defer cancel()

	start := time.Now()
	if failed := s.refresher.Refresh(ctx); failed > 0 {
		s.logger.Warn("scheduler: refresh completed with failures", "failed_cities", failed, "took", time.Since(start))
		return
	}
	s.logger.Debug("scheduler: completed refresh job", "took", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
