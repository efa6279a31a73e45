package services

import (
	"context"
	"sync"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// SchedulerService runs the pipeline on a fixed interval
type SchedulerService struct {
	pipeline *Pipeline
	logger   *core.Logger
	config   *models.SchedulerConfig
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(pipeline *Pipeline, logger *core.Logger, config *models.SchedulerConfig) *SchedulerService {
	return &SchedulerService{
		pipeline: pipeline,
		logger:   logger,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting feed scheduler", "interval", s.config.UpdateInterval, "fetch_on_start", s.config.FetchOnStart)

	s.wg.Add(1)
	go s.updateLoop(ctx)

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running cycle
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping feed scheduler")
	s.stopOnce.Do(func() { close(s.stopChan) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SchedulerService) updateLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.UpdateInterval)
	defer ticker.Stop()

	if s.config.FetchOnStart {
		s.RefreshAll(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs one cycle immediately. Failures are logged; the next
// tick tries again.
func (s *SchedulerService) RefreshAll(ctx context.Context) {
	if _, err := s.pipeline.Run(ctx); err != nil {
		s.logger.Error("Scheduled fetch cycle failed", "error", err)
	}
}
