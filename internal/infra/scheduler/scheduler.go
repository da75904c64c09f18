package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/app"
	"github.com/eyelabsai/QuickReviews/internal/domain/ops"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	cycleTimeout    = 5 * time.Minute
	statsJobTimeout = 1 * time.Minute
)

// ResendScheduler owns the recurring jobs: the eligibility sweep and the
// daily stats summary.
type ResendScheduler struct {
	cronEngine     *cron.Cron
	resendService  app.ResendService
	trackingSvc    *app.TrackingService
	notifier       ops.Notifier // nil when ops alerts are not configured
	logger         logrus.FieldLogger
	cronSpecResend string
	cronSpecStats  string
}

func NewResendScheduler(
	resendService app.ResendService,
	trackingSvc *app.TrackingService,
	notifier ops.Notifier,
	logger logrus.FieldLogger,
	cronSpecResend string,
	cronSpecStats string,
) *ResendScheduler {
	return &ResendScheduler{
		cronEngine:     cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		resendService:  resendService,
		trackingSvc:    trackingSvc,
		notifier:       notifier,
		logger:         logger,
		cronSpecResend: cronSpecResend,
		cronSpecStats:  cronSpecStats,
	}
}

func (s *ResendScheduler) Start() error {
	s.logger.Info("Starting resend scheduler")

	if _, err := s.cronEngine.AddFunc(s.cronSpecResend, s.runResendCycle); err != nil {
		return fmt.Errorf("could not add resend cycle cron job: %w", err)
	}

	if _, err := s.cronEngine.AddFunc(s.cronSpecStats, s.runStatsSummary); err != nil {
		return fmt.Errorf("could not add stats summary cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Resend scheduler started with jobs")
	return nil
}

// runResendCycle executes one sweep. Cycle-level failures (the selection
// query itself) are alerted; per-record failures were already handled inside
// the service and never surface here.
func (s *ResendScheduler) runResendCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	result, err := s.resendService.RunCycle(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Resend cycle failed")
		s.alert(fmt.Sprintf("Review resend cycle failed: %v", err))
		return
	}
	if result.ResendCount > 0 {
		s.logger.WithField("resend_count", result.ResendCount).Info("Resend cycle finished")
	}
}

func (s *ResendScheduler) runStatsSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), statsJobTimeout)
	defer cancel()

	stats, err := s.trackingSvc.Stats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to collect tracking stats")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"total":          stats.Total,
		"clicked":        stats.Clicked,
		"expired":        stats.Expired,
		"due_for_resend": stats.DueForResend,
		"click_rate":     stats.ClickRate,
	}).Info("Tracking statistics")

	s.alert(fmt.Sprintf(
		"Review tracking stats:\nTotal: %d\nClicked: %d (%.1f%%)\nExpired unclicked: %d\nDue for resend: %d",
		stats.Total, stats.Clicked, stats.ClickRate, stats.Expired, stats.DueForResend,
	))
}

func (s *ResendScheduler) alert(text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(text); err != nil {
		s.logger.WithError(err).Warn("Failed to deliver ops notification")
	}
}

func (s *ResendScheduler) Stop() {
	s.logger.Info("Stopping resend scheduler")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Resend scheduler gracefully stopped")
}
