package tracking

import (
	"context"
	"time"
)

// ResendUpdate captures the bookkeeping written after a successful dispatch.
// The store applies it as a single conditional write: the row is touched only
// while it is still unclicked and under the resend ceiling, and the counter
// advances with an in-database increment rather than an absolute value.
type ResendUpdate struct {
	RecordID   string
	Channel    Channel
	Body       string // rendered SMS body or email HTML, stored as the last-composed content
	ResentAt   time.Time
	NextExpiry time.Time
	Ceiling    int
}

// Repository defines persistence operations for tracking records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)

	// ListDueForResend returns records eligible for resend at the given
	// instant: unclicked, expired, and under the ceiling. It is a live
	// query, re-evaluated every cycle.
	ListDueForResend(ctx context.Context, now time.Time, ceiling int) ([]*Record, error)

	// RecordResend applies upd atomically. It returns false when the guard
	// no longer holds (the record was clicked or reached the ceiling in the
	// meantime), in which case nothing was written.
	RecordResend(ctx context.Context, upd ResendUpdate) (bool, error)

	// MarkClicked flips the clicked flag, stamps clicked_at and increments
	// click_count. Invoked externally when a customer opens a tracking link.
	MarkClicked(ctx context.Context, id string) error

	Stats(ctx context.Context, now time.Time, ceiling int) (*Stats, error)
}
