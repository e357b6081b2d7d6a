package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-search/internal/weather"
)

// Maintainer is implemented by stores that need periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// StatsSource reports aggregate search statistics.
type StatsSource interface {
	Stats(ctx context.Context) ([]weather.CityStat, error)
}

// Scheduler periodically checkpoints the store and logs the most searched cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Maintainer
	stats     StatsSource
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, store Maintainer, stats StatsSource) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		store:     store,
		stats:     stats,
		interval:  interval,
	}
}

// Start schedules the maintenance job and starts the underlying scheduler.
// A zero interval disables it.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: maintenance disabled; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single maintenance pass.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("scheduler: running store maintenance job")

	if s.store != nil {
		if err := s.store.Maintain(ctx); err != nil {
			log.Printf("scheduler: store maintenance failed: %v", err)
		}
	}

	if s.stats != nil {
		stats, err := s.stats.Stats(ctx)
		if err != nil {
			log.Printf("scheduler: reading search stats failed: %v", err)
		} else if len(stats) > 0 {
			top := stats[0]
			log.Printf("scheduler: %d distinct cities searched; top is %q with %d lookups", len(stats), top.City, top.Count)
		}
	}

	log.Println("scheduler: completed store maintenance job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
