package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"
)

// Custom errors specific to the tracking repository
var ErrRecordNotFound = fmt.Errorf("tracking record not found")

const recordColumns = `id, destination, channel, review_link, message, final_message, final_html,
               sender_name, clicked, click_count, clicked_at, resend_count, expires_at,
               last_resent_at, sent_at, created_at, updated_at`

type PostgresTrackingRepository struct {
	db *sql.DB
}

func NewPostgresTrackingRepository(db *sql.DB) *PostgresTrackingRepository {
	return &PostgresTrackingRepository{db: db}
}

func (r *PostgresTrackingRepository) Create(ctx context.Context, rec *tracking.Record) error {
	query := `INSERT INTO review_tracking
               (id, destination, channel, review_link, message, sender_name, clicked, click_count, resend_count, expires_at, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, FALSE, 0, 0, $7, $8)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.To, rec.Channel, rec.ReviewLink, rec.Message, rec.SenderName, rec.ExpiresAt, rec.SentAt,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating tracking record: %w", err)
	}
	return nil
}

func (r *PostgresTrackingRepository) GetByID(ctx context.Context, id string) (*tracking.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM review_tracking WHERE id = $1`
	rec := tracking.Record{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.To, &rec.Channel, &rec.ReviewLink, &rec.Message, &rec.FinalMessage, &rec.FinalHTML,
		&rec.SenderName, &rec.Clicked, &rec.ClickCount, &rec.ClickedAt, &rec.ResendCount, &rec.ExpiresAt,
		&rec.LastResentAt, &rec.SentAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting tracking record by ID: %w", err)
	}
	return &rec, nil
}

// ListDueForResend is the live eligibility query: unclicked, expired at the
// given instant, and still under the resend ceiling.
func (r *PostgresTrackingRepository) ListDueForResend(ctx context.Context, now time.Time, ceiling int) ([]*tracking.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM review_tracking
               WHERE clicked = FALSE AND expires_at <= $1 AND resend_count < $2
               ORDER BY expires_at ASC`
	rows, err := r.db.QueryContext(ctx, query, now, ceiling)
	if err != nil {
		return nil, fmt.Errorf("error querying records due for resend: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// RecordResend applies the resend bookkeeping as one conditional write. The
// WHERE guard re-checks eligibility and the counter advances in-database, so
// two overlapping cycles cannot push resend_count past the ceiling or race to
// overwrite the same absolute value.
func (r *PostgresTrackingRepository) RecordResend(ctx context.Context, upd tracking.ResendUpdate) (bool, error) {
	var query string
	switch upd.Channel {
	case tracking.ChannelSMS:
		query = `UPDATE review_tracking
               SET resend_count = resend_count + 1, last_resent_at = $2, expires_at = $3,
                   final_message = $4, updated_at = NOW()
               WHERE id = $1 AND clicked = FALSE AND resend_count < $5`
	case tracking.ChannelEmail:
		query = `UPDATE review_tracking
               SET resend_count = resend_count + 1, last_resent_at = $2, expires_at = $3,
                   final_html = $4, updated_at = NOW()
               WHERE id = $1 AND clicked = FALSE AND resend_count < $5`
	default:
		return false, fmt.Errorf("cannot record resend for unknown channel %q", upd.Channel)
	}

	res, err := r.db.ExecContext(ctx, query, upd.RecordID, upd.ResentAt, upd.NextExpiry, upd.Body, upd.Ceiling)
	if err != nil {
		return false, fmt.Errorf("error recording resend for %s: %w", upd.RecordID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading resend update result for %s: %w", upd.RecordID, err)
	}
	return affected == 1, nil
}

// MarkClicked is the independent click-recording write path. clicked is
// monotonic: once true it never reverts, and repeated clicks only bump the
// counter.
func (r *PostgresTrackingRepository) MarkClicked(ctx context.Context, id string) error {
	query := `UPDATE review_tracking
               SET clicked = TRUE,
                   clicked_at = COALESCE(clicked_at, NOW()),
                   click_count = click_count + 1,
                   updated_at = NOW()
               WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error marking record %s clicked: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading click update result for %s: %w", id, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *PostgresTrackingRepository) Stats(ctx context.Context, now time.Time, ceiling int) (*tracking.Stats, error) {
	query := `SELECT
               COUNT(*),
               COUNT(*) FILTER (WHERE clicked),
               COUNT(*) FILTER (WHERE NOT clicked AND expires_at <= $1),
               COUNT(*) FILTER (WHERE NOT clicked AND expires_at <= $1 AND resend_count < $2)
               FROM review_tracking`
	s := tracking.Stats{}
	err := r.db.QueryRowContext(ctx, query, now, ceiling).Scan(&s.Total, &s.Clicked, &s.Expired, &s.DueForResend)
	if err != nil {
		return nil, fmt.Errorf("error querying tracking stats: %w", err)
	}
	if s.Total > 0 {
		s.ClickRate = float64(s.Clicked) / float64(s.Total) * 100
	}
	return &s, nil
}

// Helper to scan multiple rows
func scanRecords(rows *sql.Rows) ([]*tracking.Record, error) {
	records := make([]*tracking.Record, 0)
	for rows.Next() {
		rec := tracking.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.To, &rec.Channel, &rec.ReviewLink, &rec.Message, &rec.FinalMessage, &rec.FinalHTML,
			&rec.SenderName, &rec.Clicked, &rec.ClickCount, &rec.ClickedAt, &rec.ResendCount, &rec.ExpiresAt,
			&rec.LastResentAt, &rec.SentAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning tracking record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking record rows: %w", err)
	}
	return records, nil
}

var _ tracking.Repository = (*PostgresTrackingRepository)(nil)
