package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/domain/dispatch"
	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"

	"github.com/sirupsen/logrus"
)

// ErrResendSuperseded means a record was dispatched but its bookkeeping guard
// no longer held: another cycle resent it first, or the customer clicked
// mid-cycle. The dispatch may reach the customer as a duplicate, which the
// resend ceiling bounds.
var ErrResendSuperseded = errors.New("resend superseded by a concurrent update")

// CycleResult is the per-cycle summary reported to the scheduler.
type CycleResult struct {
	Success     bool `json:"success"`
	ResendCount int  `json:"resendCount"`
}

// ResendService drives the expiry-driven resend process.
type ResendService interface {
	// RunCycle performs one sweep: select eligible records, compose fresh
	// content, dispatch, and reconcile state. Per-record failures are
	// isolated; only a failure of the selection query itself aborts the
	// cycle and returns an error.
	RunCycle(ctx context.Context) (CycleResult, error)
}

// ResendServiceImpl implements ResendService over a tracking repository and a
// dispatch sink.
type ResendServiceImpl struct {
	repo          tracking.Repository
	sink          dispatch.Sink
	composer      *Composer
	logger        logrus.FieldLogger
	ceiling       int
	interval      time.Duration
	recordTimeout time.Duration
}

func NewResendService(
	repo tracking.Repository,
	sink dispatch.Sink,
	composer *Composer,
	logger logrus.FieldLogger,
	ceiling int,
	interval time.Duration,
	recordTimeout time.Duration,
) *ResendServiceImpl {
	return &ResendServiceImpl{
		repo:          repo,
		sink:          sink,
		composer:      composer,
		logger:        logger,
		ceiling:       ceiling,
		interval:      interval,
		recordTimeout: recordTimeout,
	}
}

func (s *ResendServiceImpl) RunCycle(ctx context.Context) (CycleResult, error) {
	now := time.Now()

	due, err := s.repo.ListDueForResend(ctx, now, s.ceiling)
	if err != nil {
		return CycleResult{}, fmt.Errorf("eligibility query failed: %w", err)
	}
	if len(due) == 0 {
		s.logger.Debug("No expired review links due for resend")
		return CycleResult{Success: true}, nil
	}
	s.logger.WithField("due", len(due)).Info("Found expired review links to resend")

	resent := 0
	for _, rec := range due {
		recLogger := s.logger.WithFields(logrus.Fields{
			"tracking_id": rec.ID,
			"channel":     rec.Channel,
			"to":          rec.To,
		})

		if err := s.resendOne(ctx, rec, now); err != nil {
			var malformed *tracking.MalformedRecordError
			switch {
			case errors.As(err, &malformed):
				recLogger.WithError(err).Warn("Skipping malformed tracking record")
			case errors.Is(err, ErrResendSuperseded):
				recLogger.WithError(err).Warn("Resend not recorded")
			default:
				recLogger.WithError(err).Error("Failed to resend review request")
			}
			continue
		}

		recLogger.Info("Queued review request resend")
		resent++
	}

	s.logger.WithField("resend_count", resent).Info("Resend cycle complete")
	return CycleResult{Success: true, ResendCount: resent}, nil
}

// resendOne processes a single record under its own deadline so one slow sink
// write cannot stall the rest of the batch. No bookkeeping is written unless
// the dispatch succeeded; composition is idempotent, so a record retried next
// cycle still renders correct content.
func (s *ResendServiceImpl) resendOne(parent context.Context, rec *tracking.Record, now time.Time) error {
	ctx, cancel := context.WithTimeout(parent, s.recordTimeout)
	defer cancel()

	if err := rec.Validate(); err != nil {
		return err
	}

	var body string
	switch rec.Channel {
	case tracking.ChannelSMS:
		payload := s.composer.ComposeSMS(rec)
		if err := s.sink.EnqueueSMS(ctx, payload); err != nil {
			return fmt.Errorf("enqueue sms: %w", err)
		}
		body = payload.Body
	case tracking.ChannelEmail:
		payload := s.composer.ComposeEmail(rec)
		if err := s.sink.EnqueueEmail(ctx, payload); err != nil {
			return fmt.Errorf("enqueue email: %w", err)
		}
		body = payload.HTML
	}

	applied, err := s.repo.RecordResend(ctx, tracking.ResendUpdate{
		RecordID:   rec.ID,
		Channel:    rec.Channel,
		Body:       body,
		ResentAt:   now,
		NextExpiry: now.Add(s.interval),
		Ceiling:    s.ceiling,
	})
	if err != nil {
		return fmt.Errorf("record resend bookkeeping: %w", err)
	}
	if !applied {
		return ErrResendSuperseded
	}
	return nil
}

var _ ResendService = (*ResendServiceImpl)(nil)
