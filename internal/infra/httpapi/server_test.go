package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/app"
	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"

	"github.com/sirupsen/logrus"
)

type stubTrackingAPI struct {
	clicks    []string
	clickErr  error
	createErr error
	stats     *tracking.Stats
	statsErr  error
}

func (s *stubTrackingAPI) CreateRecord(ctx context.Context, input app.NewRecord) (*tracking.Record, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &tracking.Record{
		ID:        "generated-id",
		To:        input.To,
		Channel:   input.Channel,
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (s *stubTrackingAPI) RecordClick(ctx context.Context, id string) error {
	if s.clickErr != nil {
		return s.clickErr
	}
	s.clicks = append(s.clicks, id)
	return nil
}

func (s *stubTrackingAPI) Stats(ctx context.Context) (*tracking.Stats, error) {
	return s.stats, s.statsErr
}

func newTestServer(stub *stubTrackingAPI) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(stub, log).Router()
}

func TestTrackingRedirectRecordsClick(t *testing.T) {
	stub := &stubTrackingAPI{}
	router := newTestServer(stub)

	target := "/tracking.html?tracking=track-1&link=" + url.QueryEscape("https://g.page/r/abc123")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://g.page/r/abc123" {
		t.Errorf("Location = %q", loc)
	}
	if len(stub.clicks) != 1 || stub.clicks[0] != "track-1" {
		t.Errorf("clicks = %v, want [track-1]", stub.clicks)
	}
}

func TestTrackingRedirectSurvivesClickFailure(t *testing.T) {
	stub := &stubTrackingAPI{clickErr: errors.New("store unavailable")}
	router := newTestServer(stub)

	target := "/tracking.html?tracking=track-1&link=" + url.QueryEscape("https://g.page/r/abc123")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// The customer is never stranded on a tracking failure.
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
}

func TestTrackingRedirectRejectsBadLink(t *testing.T) {
	stub := &stubTrackingAPI{}
	router := newTestServer(stub)

	for _, link := range []string{"", "javascript:alert(1)", "notaurl"} {
		req := httptest.NewRequest(http.MethodGet, "/tracking.html?tracking=x&link="+url.QueryEscape(link), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("link %q: status = %d, want 400", link, rr.Code)
		}
	}
	if len(stub.clicks) != 0 {
		t.Errorf("clicks recorded for rejected links: %v", stub.clicks)
	}
}

func TestStatsEndpoint(t *testing.T) {
	stub := &stubTrackingAPI{stats: &tracking.Stats{Total: 10, Clicked: 4, Expired: 3, DueForResend: 2, ClickRate: 40}}
	router := newTestServer(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got tracking.Stats
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != *stub.stats {
		t.Errorf("stats = %+v, want %+v", got, *stub.stats)
	}
}

func TestCreateRecordEndpoint(t *testing.T) {
	stub := &stubTrackingAPI{}
	router := newTestServer(stub)

	body := `{"to":"+15551234567","channel":"sms","review_link":"https://g.page/r/x","message":"Hi Bob!","expires_in":"72h"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tracking", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "generated-id" {
		t.Errorf("id = %q", resp.ID)
	}
}

func TestCreateRecordEndpointRejectsMalformed(t *testing.T) {
	stub := &stubTrackingAPI{createErr: &tracking.MalformedRecordError{Reason: "missing destination address"}}
	router := newTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", strings.NewReader(`{"channel":"sms"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCreateRecordEndpointRejectsBadDuration(t *testing.T) {
	router := newTestServer(&stubTrackingAPI{})

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", strings.NewReader(`{"to":"x","channel":"sms","review_link":"https://g.page/r/x","expires_in":"soon"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
