package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewRecord is the input for creating a tracking record. The actual first
// send happens elsewhere; this only registers the record the resend process
// and the click path operate on.
type NewRecord struct {
	To         string           `json:"to"`
	Channel    tracking.Channel `json:"channel"`
	ReviewLink string           `json:"review_link"`
	Message    string           `json:"message"`
	SenderName string           `json:"sender_name"`
	ExpiresIn  time.Duration    `json:"-"`
}

// TrackingService handles record creation, click recording and statistics.
type TrackingService struct {
	repo          tracking.Repository
	logger        logrus.FieldLogger
	initialExpiry time.Duration
	ceiling       int
}

func NewTrackingService(repo tracking.Repository, logger logrus.FieldLogger, initialExpiry time.Duration, ceiling int) *TrackingService {
	return &TrackingService{
		repo:          repo,
		logger:        logger,
		initialExpiry: initialExpiry,
		ceiling:       ceiling,
	}
}

// CreateRecord validates and persists a new tracking record. Google review
// links are normalized to pre-select a five-star rating.
func (s *TrackingService) CreateRecord(ctx context.Context, input NewRecord) (*tracking.Record, error) {
	now := time.Now()
	expiresIn := input.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.initialExpiry
	}

	rec := &tracking.Record{
		ID:         uuid.NewString(),
		To:         input.To,
		Channel:    input.Channel,
		ReviewLink: WithFiveStarRating(input.ReviewLink),
		Message:    input.Message,
		ExpiresAt:  now.Add(expiresIn),
		SentAt:     now,
	}
	if input.SenderName != "" {
		rec.SenderName = sql.NullString{String: input.SenderName, Valid: true}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create tracking record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tracking_id": rec.ID,
		"channel":     rec.Channel,
		"expires_at":  rec.ExpiresAt,
	}).Info("Tracking record created")
	return rec, nil
}

// RecordClick marks the record clicked and bumps its click counter. The
// clicked flag is monotonic, so the record is permanently excluded from
// resend eligibility from the selector's next evaluation on.
func (s *TrackingService) RecordClick(ctx context.Context, id string) error {
	if err := s.repo.MarkClicked(ctx, id); err != nil {
		return fmt.Errorf("failed to mark record %s clicked: %w", id, err)
	}
	s.logger.WithField("tracking_id", id).Info("Review link marked as clicked")
	return nil
}

func (s *TrackingService) Stats(ctx context.Context) (*tracking.Stats, error) {
	stats, err := s.repo.Stats(ctx, time.Now(), s.ceiling)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking stats: %w", err)
	}
	return stats, nil
}
