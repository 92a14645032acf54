package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/viserion/redirect"
	"github.com/jrsteele09/viserion/server"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const eventQueueSize = 32

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the redirect listener, background sync and popup API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			displayAppname(opts.cfg.GetAppName())
			return opts.withApp(func(a *app) error {
				return serve(cmd.Context(), a)
			})
		},
	}
}

func serve(parent context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan redirect.NavigationEvent, eventQueueSize)
	listener := redirect.NewListener(a.cfg.GetRedirectOrigin(), a.exchanger, a.orchestrator,
		redirect.WithOutcomeHandler(logOutcome))
	if err := listener.Start(ctx, events); err != nil {
		return err
	}
	defer listener.Stop()

	var startup sync.WaitGroup
	defer startup.Wait()
	if a.cfg.GetSyncOnStartup() {
		startup.Add(1)
		go func() {
			defer startup.Done()
			a.orchestrator.SyncStartup(context.WithoutCancel(ctx))
		}()
	}

	scheduler, err := syncer.NewScheduler(a.orchestrator, a.cfg.GetSyncSchedule())
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := server.New(a.cfg, server.Dependencies{
		Popup:        a.popup,
		Listener:     listener,
		Orchestrator: a.orchestrator,
		Events:       events,
	})
	err = srv.ListenAndServe(ctx)
	log.Info().Msg("Server stopped")
	return err
}

func logOutcome(o redirect.Outcome) {
	if o.Err != nil {
		log.Warn().Err(o.Err).Str("provider", string(o.Provider)).Msg("Redirect not completed")
		return
	}
	log.Info().
		Str("provider", string(o.Provider)).
		Bool("ok", o.Report.OK()).
		Int("failed", len(o.Report.Failed())).
		Msg("Redirect completed")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
