package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/viserion/internal/config"
	"github.com/jrsteele09/viserion/popup"
	"github.com/jrsteele09/viserion/redirect"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// Dependencies are the services the HTTP surface exposes.
type Dependencies struct {
	Popup        *popup.Service
	Listener     *redirect.Listener
	Orchestrator *syncer.Orchestrator
	// Events receives navigation events posted by the browser shim.
	Events chan<- redirect.NavigationEvent
}

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	deps    Dependencies
	limiter *rate.Limiter
}

func New(cfg config.Config, deps Dependencies) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(cfg.GetEventRate()), cfg.GetEventBurst()),
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.GetListenAddress(),
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
	}
}
