package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"brandpulse/internal/config"
	"brandpulse/internal/domain/detect"
	"brandpulse/internal/domain/trend"
)

// Service runs the recurring analysis batch: an outlier detection pass
// followed by the daily trend and hourly radar snapshot captures, once per
// configured account set.
type Service struct {
	config   config.SchedulerConfig
	engine   detect.Engine
	analyzer trend.Analyzer
	radar    trend.Radar
	log      *logrus.Logger
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg config.SchedulerConfig, engine detect.Engine, analyzer trend.Analyzer, radar trend.Radar, log *logrus.Logger) *Service {
	return &Service{
		config:   cfg,
		engine:   engine,
		analyzer: analyzer,
		radar:    radar,
		log:      log,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled batch runs
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info("Scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.CronSpec, func() {
		s.log.Info("Starting scheduled analysis batch")
		s.runBatch()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Infof("Scheduler started with cron spec %q for %d account sets", s.config.CronSpec, len(s.config.AccountSets))
	return nil
}

// runBatch processes the account sets serially. A failure in one step is
// logged and the batch moves on, so a bad account set cannot starve the rest.
func (s *Service) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, accountSetID := range s.config.AccountSets {
		log := s.log.WithField("account_set", accountSetID)

		if _, err := s.engine.Run(ctx, accountSetID, detect.RunOptions{}); err != nil {
			log.WithError(err).Error("Scheduled detection run failed")
			continue
		}

		if _, err := s.analyzer.CaptureSnapshot(ctx, accountSetID); err != nil {
			log.WithError(err).Error("Scheduled trend snapshot failed")
		}

		if _, err := s.radar.CaptureSnapshot(ctx, accountSetID); err != nil {
			log.WithError(err).Error("Scheduled radar snapshot failed")
		}
	}
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.log.Info("Scheduler stopped")
	}
}
