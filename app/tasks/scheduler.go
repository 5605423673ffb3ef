// Package tasks runs the periodic background refresh.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/okatenko/channelpulse/app/cfg"
	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/refresh"
)

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler kicks off a non-forced batch refresh on a fixed interval. The
// coordinator's cache-validity window makes an early tick cheap: channels
// refreshed recently are skipped, not re-fetched.
type Scheduler struct {
	channelRepo database.ChannelRepository
	jobs        *refresh.JobManager
	interval    time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewScheduler(channelRepo database.ChannelRepository, jobs *refresh.JobManager) SchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		channelRepo: channelRepo,
		jobs:        jobs,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.startBatch()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.startBatch()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) startBatch() {
	channels, err := s.channelRepo.ListChannels()
	if err != nil {
		slog.Error("Failed to list channels for scheduled refresh", "error", err)
		return
	}
	if len(channels) == 0 {
		slog.Debug("No channels registered, skipping scheduled refresh")
		return
	}

	channelIDs := make([]int64, 0, len(channels))
	for _, channel := range channels {
		channelIDs = append(channelIDs, channel.ID)
	}

	jobID := s.jobs.StartJob(channelIDs, false)
	slog.Debug("Scheduled refresh started", "job_id", jobID, "channels", len(channelIDs))
}
