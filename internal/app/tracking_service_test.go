package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"
)

func newTestTrackingService(repo tracking.Repository) *TrackingService {
	return NewTrackingService(repo, quietLogger(), 72*time.Hour, 3)
}

func TestCreateRecordDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestTrackingService(repo)

	before := time.Now()
	rec, err := svc.CreateRecord(context.Background(), NewRecord{
		To:         "+15551234567",
		Channel:    tracking.ChannelSMS,
		ReviewLink: "https://search.google.com/local/writereview?placeid=XYZ",
		Message:    "Hi Bob! [TRACKING_URL]",
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	if rec.ID == "" {
		t.Error("record id not assigned")
	}
	if rec.Clicked || rec.ClickCount != 0 || rec.ResendCount != 0 {
		t.Errorf("fresh record has non-zero tracking state: %+v", rec)
	}
	if !strings.Contains(rec.ReviewLink, "rating=5") {
		t.Errorf("google review link not normalized to five stars: %q", rec.ReviewLink)
	}
	wantExpiry := before.Add(72 * time.Hour)
	if rec.ExpiresAt.Before(wantExpiry) || rec.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want about %v", rec.ExpiresAt, wantExpiry)
	}
	if _, err := repo.GetByID(context.Background(), rec.ID); err != nil {
		t.Errorf("record not persisted: %v", err)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	svc := newTestTrackingService(newFakeRepo())

	cases := []struct {
		name  string
		input NewRecord
	}{
		{"missing to", NewRecord{Channel: tracking.ChannelSMS, ReviewLink: "https://g.page/r/x", Message: "hi"}},
		{"unknown channel", NewRecord{To: "+1555", Channel: "fax", ReviewLink: "https://g.page/r/x", Message: "hi"}},
		{"missing review link", NewRecord{To: "+1555", Channel: tracking.ChannelSMS, Message: "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRecord(context.Background(), tc.input)
			var malformed *tracking.MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Errorf("err = %v, want MalformedRecordError", err)
			}
		})
	}
}

func TestRecordClick(t *testing.T) {
	rec := expiredSMSRecord("clickme")
	repo := newFakeRepo(rec)
	svc := newTestTrackingService(repo)

	if err := svc.RecordClick(context.Background(), rec.ID); err != nil {
		t.Fatalf("RecordClick: %v", err)
	}
	if !rec.Clicked || rec.ClickCount != 1 || !rec.ClickedAt.Valid {
		t.Errorf("click not recorded: %+v", rec)
	}
}

func TestRecordClickPropagatesStoreError(t *testing.T) {
	repo := newFakeRepo()
	repo.clickErr = errors.New("store unavailable")
	svc := newTestTrackingService(repo)

	err := svc.RecordClick(context.Background(), "whatever")
	if err == nil || !strings.Contains(err.Error(), "store unavailable") {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

func TestStats(t *testing.T) {
	clicked := expiredSMSRecord("a")
	clicked.Clicked = true
	due := expiredSMSRecord("b")
	exhausted := expiredSMSRecord("c")
	exhausted.ResendCount = 3

	svc := newTestTrackingService(newFakeRepo(clicked, due, exhausted))

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Clicked != 1 || stats.Expired != 2 || stats.DueForResend != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ClickRate < 33 || stats.ClickRate > 34 {
		t.Errorf("ClickRate = %v, want about 33.3", stats.ClickRate)
	}
}
