package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/viserion/oauthmodel"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/rs/zerolog/log"
)

type tokenResponse struct {
	Provider    providers.Provider `json:"provider"`
	AccessToken string             `json:"access_token"`
}

type loginResponse struct {
	Provider providers.Provider `json:"provider"`
	URL      string             `json:"url"`
}

type outcomeResponse struct {
	Kind      providers.EntityKind `json:"kind"`
	Store     string               `json:"store"`
	Fetched   bool                 `json:"fetched"`
	Persisted bool                 `json:"persisted"`
	Count     int                  `json:"count"`
	Error     string               `json:"error,omitempty"`
}

type reportResponse struct {
	CycleID        string             `json:"cycle_id"`
	Provider       providers.Provider `json:"provider"`
	Trigger        syncer.Trigger     `json:"trigger"`
	OK             bool               `json:"ok"`
	Skipped        bool               `json:"skipped"`
	TokenPersisted bool               `json:"token_persisted"`
	Outcomes       []outcomeResponse  `json:"outcomes"`
	Error          string             `json:"error,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

func newReportResponse(r *syncer.Report) reportResponse {
	resp := reportResponse{
		CycleID:        r.CycleID,
		Provider:       r.Provider,
		Trigger:        r.Trigger,
		OK:             r.OK(),
		Skipped:        r.Skipped,
		TokenPersisted: r.TokenPersisted,
		Outcomes:       make([]outcomeResponse, 0, len(r.Outcomes)),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	for _, o := range r.Outcomes {
		out := outcomeResponse{
			Kind:      o.Kind,
			Store:     o.Store.String(),
			Fetched:   o.Fetched,
			Persisted: o.Persisted,
			Count:     o.Count,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}

// StatusHandler reports login state and cache sizes for every provider.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.deps.Popup.Status(r.Context()))
	}
}

// TokenHandler returns the stored access token for the popup.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := providerFromPath(w, r)
		if !ok {
			return
		}
		tok, ok := s.deps.Popup.AccessTokenFromStore(r.Context(), p)
		if !ok {
			writeJSONError(w, "not_logged_in", "no stored access token for "+string(p), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Provider: p, AccessToken: tok})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := providerFromPath(w, r)
		if !ok {
			return
		}
		u, err := s.deps.Popup.LoginURL(p)
		if err != nil {
			log.Err(err).Str("provider", string(p)).Msg("Failed to build login url")
			writeJSONError(w, "not_configured", err.Error(), http.StatusServiceUnavailable)
			return
		}
		if r.URL.Query().Get("redirect") == "true" {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Provider: p, URL: u})
	}
}

// ResourcesHandler returns the cached collection.
func (s *Server) ResourcesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityFromPath(w, r)
		if !ok {
			return
		}
		p := providers.Provider(r.PathValue("provider"))
		writeJSON(w, http.StatusOK, s.deps.Popup.ResourcesFromStore(r.Context(), p, entity.Kind))
	}
}

// LiveResourcesHandler fetches straight from the proxy with the request's
// bearer token, or the stored one when none is sent. Nothing is persisted.
func (s *Server) LiveResourcesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityFromPath(w, r)
		if !ok {
			return
		}
		p := providers.Provider(r.PathValue("provider"))

		tok := bearerToken(r)
		if tok == "" {
			tok, ok = s.deps.Popup.AccessTokenFromStore(r.Context(), p)
			if !ok {
				writeJSONError(w, "not_logged_in", "no access token for "+string(p), http.StatusUnauthorized)
				return
			}
		}

		items, ok := s.deps.Popup.FetchResourcesLive(r.Context(), p, entity.Kind, tok)
		if !ok {
			writeJSONError(w, "upstream_error", "fetch failed", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// SyncHandler re-syncs from stored tokens: one provider when ?provider= is
// given, otherwise all of them.
func (s *Server) SyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())

		var reports []*syncer.Report
		if name := r.URL.Query().Get("provider"); name != "" {
			p, err := providers.Parse(name)
			if err != nil {
				writeJSONError(w, "unknown_provider", err.Error(), http.StatusNotFound)
				return
			}
			reports = append(reports, s.deps.Orchestrator.SyncStored(ctx, p, syncer.TriggerManual))
		} else {
			reports = s.deps.Orchestrator.SyncAll(ctx, syncer.TriggerManual)
		}

		resp := make([]reportResponse, 0, len(reports))
		for _, rep := range reports {
			resp = append(resp, newReportResponse(rep))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PreflightHandler answers CORS preflight requests; headers are set by
// CorsMiddleware.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func providerFromPath(w http.ResponseWriter, r *http.Request) (providers.Provider, bool) {
	p, err := providers.Parse(r.PathValue("provider"))
	if err != nil {
		writeJSONError(w, "unknown_provider", err.Error(), http.StatusNotFound)
		return "", false
	}
	return p, true
}

func entityFromPath(w http.ResponseWriter, r *http.Request) (providers.Entity, bool) {
	p, ok := providerFromPath(w, r)
	if !ok {
		return providers.Entity{}, false
	}
	kind := providers.EntityKind(r.PathValue("entity"))
	entity, ok := providers.EntityFor(p, kind)
	if !ok {
		writeJSONError(w, "unknown_entity", string(p)+" has no "+string(kind), http.StatusNotFound)
		return providers.Entity{}, false
	}
	return entity, true
}

func bearerToken(r *http.Request) string {
	scheme, tok, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, oauthmodel.ErrorResponse{Error: errorCode, ErrorDescription: description})
}
