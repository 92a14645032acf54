package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/internal/tracing"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/store"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var tracer = tracing.Tracer("github.com/jrsteele09/viserion/syncer")

// Fetcher retrieves one resource collection.
type Fetcher interface {
	Fetch(ctx context.Context, provider providers.Provider, kind providers.EntityKind, accessToken string) ([]resources.Resource, bool)
}

// TokenStore persists one access token per provider.
type TokenStore interface {
	Save(ctx context.Context, provider providers.Provider, tok *oauth2.Token) bool
	Load(ctx context.Context, provider providers.Provider) (*oauth2.Token, bool)
}

// Orchestrator runs sync cycles: persist the token, then fetch every entity of
// the provider concurrently and persist each collection independently.
type Orchestrator struct {
	store   *store.Store
	tokens  TokenStore
	fetcher Fetcher
	stored  singleflight.Group
	newID   func() string
	now     func() time.Time
}

func New(s *store.Store, tokens TokenStore, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{
		store:   s,
		tokens:  tokens,
		fetcher: fetcher,
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}
}

// SyncWithToken is the redirect-triggered cycle for a freshly exchanged token.
func (o *Orchestrator) SyncWithToken(ctx context.Context, provider providers.Provider, tok *oauth2.Token) *Report {
	report := o.newReport(provider, TriggerRedirect)
	defer o.finish(report)

	spec, ok := providers.Lookup(provider)
	if !ok {
		report.Err = fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, provider)
		return report
	}
	if tok == nil || tok.AccessToken == "" {
		report.Err = apperrors.ErrNotLoggedIn
		return report
	}

	// A token that fails to persist is still good for this cycle.
	report.TokenPersisted = o.tokens.Save(ctx, provider, tok)
	if !report.TokenPersisted {
		log.Warn().Str("provider", string(provider)).Str("cycle_id", report.CycleID).Msg("Access token was not persisted")
	}

	report.Outcomes = o.fetchAll(ctx, spec, tok.AccessToken, report.CycleID)
	return report
}

// SyncStored re-runs the cycle with the provider's persisted token. A provider
// with no stored token is skipped. Concurrent calls with the same provider and
// trigger share one cycle; different triggers each run their own.
func (o *Orchestrator) SyncStored(ctx context.Context, provider providers.Provider, trigger Trigger) *Report {
	v, _, _ := o.stored.Do(string(provider)+"/"+string(trigger), func() (interface{}, error) {
		return o.syncStored(ctx, provider, trigger), nil
	})
	return v.(*Report)
}

func (o *Orchestrator) syncStored(ctx context.Context, provider providers.Provider, trigger Trigger) *Report {
	report := o.newReport(provider, trigger)
	defer o.finish(report)

	spec, ok := providers.Lookup(provider)
	if !ok {
		report.Err = fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, provider)
		return report
	}

	tok, ok := o.tokens.Load(ctx, provider)
	if !ok {
		report.Skipped = true
		return report
	}
	report.TokenPersisted = true
	report.Outcomes = o.fetchAll(ctx, spec, tok.AccessToken, report.CycleID)
	return report
}

// SyncStartup runs SyncStored for every provider and returns one report per
// provider in providers.All order.
func (o *Orchestrator) SyncStartup(ctx context.Context) []*Report {
	return o.SyncAll(ctx, TriggerStartup)
}

func (o *Orchestrator) SyncAll(ctx context.Context, trigger Trigger) []*Report {
	all := providers.All()
	reports := make([]*Report, len(all))

	var g errgroup.Group
	for i, p := range all {
		g.Go(func() error {
			reports[i] = o.SyncStored(ctx, p, trigger)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// fetchAll starts every entity's fetch back-to-back. Each task persists its
// own result as soon as it resolves; a failure never touches sibling stores.
func (o *Orchestrator) fetchAll(ctx context.Context, spec providers.Spec, accessToken, cycleID string) []Outcome {
	ctx, span := tracer.Start(ctx, "syncer.Cycle")
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.AttrProvider, string(spec.Provider)),
		attribute.String(tracing.AttrCycleID, cycleID),
	)

	outcomes := make([]Outcome, len(spec.Entities))

	var g errgroup.Group
	for i, entity := range spec.Entities {
		g.Go(func() error {
			outcomes[i] = o.fetchAndPersist(ctx, spec.Provider, entity, accessToken, cycleID)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) fetchAndPersist(ctx context.Context, provider providers.Provider, entity providers.Entity, accessToken, cycleID string) Outcome {
	out := Outcome{Kind: entity.Kind, Store: entity.Store}
	logger := log.With().
		Str("provider", string(provider)).
		Str("entity", string(entity.Kind)).
		Str("cycle_id", cycleID).
		Logger()

	items, ok := o.fetcher.Fetch(ctx, provider, entity.Kind, accessToken)
	if !ok {
		out.Err = apperrors.ErrFetchFailed
		logger.Warn().Msg("Fetch failed, keeping cached collection")
		return out
	}
	out.Fetched = true
	out.Count = len(items)

	if !store.ReplaceAll(ctx, o.store, entity.Store, items) {
		out.Err = apperrors.ErrPersistFailed
		logger.Warn().Int("count", len(items)).Msg("Persist failed")
		return out
	}
	out.Persisted = true
	logger.Debug().Int("count", len(items)).Str("store", entity.Store.String()).Msg("Collection stored")
	return out
}

func (o *Orchestrator) newReport(provider providers.Provider, trigger Trigger) *Report {
	return &Report{
		CycleID:   o.newID(),
		Provider:  provider,
		Trigger:   trigger,
		StartedAt: o.now(),
	}
}

func (o *Orchestrator) finish(r *Report) {
	r.FinishedAt = o.now()

	evt := log.Info()
	if r.Skipped {
		evt = log.Debug()
	} else if r.Err != nil || len(r.Failed()) > 0 {
		evt = log.Warn().Err(r.Err).Int("failed", len(r.Failed()))
	}
	evt.Str("provider", string(r.Provider)).
		Str("cycle_id", r.CycleID).
		Str("trigger", string(r.Trigger)).
		Bool("skipped", r.Skipped).
		Dur("took", r.Duration()).
		Msg("Sync cycle finished")
}
