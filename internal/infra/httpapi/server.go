package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/eyelabsai/QuickReviews/internal/app"
	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// TrackingAPI is the slice of the tracking service the HTTP layer needs.
type TrackingAPI interface {
	CreateRecord(ctx context.Context, input app.NewRecord) (*tracking.Record, error)
	RecordClick(ctx context.Context, id string) error
	Stats(ctx context.Context) (*tracking.Stats, error)
}

// Server exposes the tracking redirect and a small management API.
type Server struct {
	svc    TrackingAPI
	logger logrus.FieldLogger
}

func NewServer(svc TrackingAPI, logger logrus.FieldLogger) *Server {
	return &Server{svc: svc, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/tracking.html", s.handleTrackingRedirect)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Post("/tracking", s.handleCreateRecord)
	})
	return r
}

// handleTrackingRedirect records the click and forwards the customer to the
// review destination. Click recording is best-effort: a store failure or an
// unknown id must never strand the customer, so the redirect always happens
// when the link itself is valid.
func (s *Server) handleTrackingRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	trackingID := q.Get("tracking")
	link := q.Get("link")

	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		http.Error(w, "invalid review link", http.StatusBadRequest)
		return
	}

	if trackingID != "" {
		if err := s.svc.RecordClick(r.Context(), trackingID); err != nil {
			s.logger.WithError(err).WithField("tracking_id", trackingID).Warn("Failed to record click")
		}
	}

	http.Redirect(w, r, link, http.StatusFound)
}

type createRecordRequest struct {
	To         string `json:"to"`
	Channel    string `json:"channel"`
	ReviewLink string `json:"review_link"`
	Message    string `json:"message"`
	SenderName string `json:"sender_name"`
	ExpiresIn  string `json:"expires_in"` // optional Go duration, e.g. "72h"
}

type createRecordResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := app.NewRecord{
		To:         req.To,
		Channel:    tracking.Channel(req.Channel),
		ReviewLink: req.ReviewLink,
		Message:    req.Message,
		SenderName: req.SenderName,
	}
	if req.ExpiresIn != "" {
		expiresIn, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || expiresIn <= 0 {
			http.Error(w, "invalid expires_in", http.StatusBadRequest)
			return
		}
		input.ExpiresIn = expiresIn
	}

	rec, err := s.svc.CreateRecord(r.Context(), input)
	if err != nil {
		var malformed *tracking.MalformedRecordError
		if errors.As(err, &malformed) {
			http.Error(w, malformed.Reason, http.StatusBadRequest)
			return
		}
		s.logger.WithError(err).Error("Failed to create tracking record")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, createRecordResponse{ID: rec.ID, ExpiresAt: rec.ExpiresAt})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to load tracking stats")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
