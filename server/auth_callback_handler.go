package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/oauthmodel"
	"github.com/jrsteele09/viserion/redirect"
	"github.com/rs/zerolog/log"
)

const maxEventBodyBytes = 16 << 10

type navigationRequest struct {
	URL string `json:"url"`
}

// NavigationEventHandler queues a navigation completion reported by the
// browser shim. The listener decides whether it is a redirect.
func (s *Server) NavigationEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req navigationRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be {\"url\": \"...\"}", http.StatusBadRequest)
			return
		}
		if req.URL == "" {
			writeJSONError(w, "invalid_request", "url is required", http.StatusBadRequest)
			return
		}

		if s.deps.Events == nil {
			writeJSONError(w, "unavailable", "listener not running", http.StatusServiceUnavailable)
			return
		}
		select {
		case s.deps.Events <- redirect.NavigationEvent{URL: req.URL, At: time.Now()}:
			w.WriteHeader(http.StatusAccepted)
		default:
			log.Warn().Msg("Navigation event dropped, queue full")
			writeJSONError(w, "unavailable", "event queue full", http.StatusServiceUnavailable)
		}
	}
}

// CallbackHandler lets the daemon itself be the OAuth redirect target. The
// request URL is rebuilt on the redirect origin so it routes exactly as a
// navigation event to that origin would.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if providerErr := (oauthmodel.ErrorResponse{Error: q.Get("error"), ErrorDescription: q.Get("error_description")}); providerErr.HasError() {
			log.Warn().Str("error", providerErr.String()).Msg("Authorization denied by provider")
			writeJSON(w, http.StatusBadRequest, providerErr)
			return
		}

		rawURL := s.config.GetRedirectOrigin() + r.URL.RequestURI()
		report, err := s.deps.Listener.Handle(context.WithoutCancel(r.Context()), rawURL)
		switch {
		case errors.Is(err, apperrors.ErrNotRedirect):
			writeJSONError(w, "invalid_request", "missing code parameter", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrExchangeInFlight):
			writeJSONError(w, "exchange_in_flight", err.Error(), http.StatusConflict)
		case errors.Is(err, apperrors.ErrExchangeFailed):
			writeJSONError(w, "exchange_failed", err.Error(), http.StatusBadGateway)
		case err != nil:
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, newReportResponse(report))
		}
	}
}
