package main

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/viserion/auth"
	"github.com/jrsteele09/viserion/internal/config"
	"github.com/jrsteele09/viserion/popup"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/store"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/jrsteele09/viserion/token"
	"github.com/rs/zerolog/log"
)

// app holds the wired components shared by every command.
type app struct {
	cfg          config.Config
	store        *store.Store
	tokens       *token.Store
	exchanger    *token.Exchanger
	fetcher      *resources.Fetcher
	orchestrator *syncer.Orchestrator
	popup        *popup.Service
}

func newApp(cfg config.Config) (*app, error) {
	s, err := store.Open(cfg.GetStoreBackend(), cfg.GetDataFolder())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.GetStoreBackend(), err)
	}

	client := &http.Client{Timeout: cfg.GetHTTPTimeout()}
	tokens := token.NewStore(s)
	fetcher := resources.NewFetcher(cfg.GetProxyURL(), client)

	return &app{
		cfg:          cfg,
		store:        s,
		tokens:       tokens,
		exchanger:    token.NewExchanger(cfg.GetProxyURL(), client),
		fetcher:      fetcher,
		orchestrator: syncer.New(s, tokens, fetcher),
		popup:        popup.NewService(s, tokens, fetcher, auth.NewLoginService(cfg)),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Err(err).Msg("Failed to close store")
	}
}
