package tracking

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Record tracks a single review-request send and its resend bookkeeping.
// Corresponds to the 'review_tracking' table.
type Record struct {
	ID           string
	To           string
	Channel      Channel
	ReviewLink   string
	Message      string
	FinalMessage sql.NullString // last-composed SMS body, overwritten on every resend
	FinalHTML    sql.NullString // last-composed email HTML, overwritten on every resend
	SenderName   sql.NullString
	Clicked      bool
	ClickCount   int
	ClickedAt    sql.NullTime
	ResendCount  int
	ExpiresAt    time.Time
	LastResentAt sql.NullTime
	SentAt       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MalformedRecordError marks a record that cannot be composed or dispatched.
// Such records are skipped for the cycle, never aborting it.
type MalformedRecordError struct {
	RecordID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("tracking record %s is malformed: %s", e.RecordID, e.Reason)
}

// Validate checks the fields a resend depends on. It is called at the
// store-read boundary so a bad row is flagged instead of trusted.
func (r *Record) Validate() error {
	if r.To == "" {
		return &MalformedRecordError{RecordID: r.ID, Reason: "missing destination address"}
	}
	if !r.Channel.Known() {
		return &MalformedRecordError{RecordID: r.ID, Reason: fmt.Sprintf("unknown channel %q", r.Channel)}
	}
	if r.ReviewLink == "" {
		return &MalformedRecordError{RecordID: r.ID, Reason: "missing review link"}
	}
	if _, err := url.Parse(r.ReviewLink); err != nil {
		return &MalformedRecordError{RecordID: r.ID, Reason: fmt.Sprintf("invalid review link: %v", err)}
	}
	return nil
}
