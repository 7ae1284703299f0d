package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the summary service on a cron spec (standard 5-field form,
// e.g. "30 21 * * *" for 21:30 daily).
type Scheduler struct {
	service *Service
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewScheduler(service *Service, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service: service,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.service.Run(ctx, time.Now().UTC()); err != nil {
			s.logger.Error("scheduled summary run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("summary: register cron job %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("summary scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("summary scheduler stopped")
}
