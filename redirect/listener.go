package redirect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// State is the exchange state of one provider.
type State int

const (
	Idle State = iota
	Exchanging
)

func (s State) String() string {
	if s == Exchanging {
		return "exchanging"
	}
	return "idle"
}

// NavigationEvent reports a completed navigation to URL.
type NavigationEvent struct {
	URL string    `json:"url"`
	At  time.Time `json:"at"`
}

// Outcome is published for every navigation event that matched a redirect.
type Outcome struct {
	URL      string
	Provider providers.Provider
	Report   *syncer.Report
	Err      error
}

type Exchanger interface {
	Exchange(ctx context.Context, provider providers.Provider, code string) *oauth2.Token
}

type Syncer interface {
	SyncWithToken(ctx context.Context, provider providers.Provider, tok *oauth2.Token) *syncer.Report
}

type Option func(*Listener)

// WithOutcomeHandler registers fn to receive every redirect outcome.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(l *Listener) {
		l.onOutcome = fn
	}
}

// Listener watches navigation events for OAuth redirects and drives the token
// exchange and sync for the matching provider. Each provider has a single
// exchange slot; a redirect arriving while the slot is taken is rejected.
type Listener struct {
	origin    string
	exchanger Exchanger
	syncer    Syncer
	onOutcome func(Outcome)
	slots     map[providers.Provider]*atomic.Bool

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	handlers sync.WaitGroup
}

func NewListener(redirectOrigin string, exchanger Exchanger, s Syncer, options ...Option) *Listener {
	l := &Listener{
		origin:    redirectOrigin,
		exchanger: exchanger,
		syncer:    s,
		slots:     make(map[providers.Provider]*atomic.Bool),
	}
	for _, p := range providers.All() {
		l.slots[p] = &atomic.Bool{}
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// State reports whether an exchange is in flight for provider.
func (l *Listener) State(provider providers.Provider) State {
	slot, ok := l.slots[provider]
	if ok && slot.Load() {
		return Exchanging
	}
	return Idle
}

// Handle processes one navigated URL. URLs that are not redirects return
// ErrNotRedirect. The slot is held until the sync cycle for the new token has
// settled, so two tokens for one provider never race to persist.
func (l *Listener) Handle(ctx context.Context, rawURL string) (*syncer.Report, error) {
	r, ok := Route(l.origin, rawURL)
	if !ok {
		return nil, apperrors.ErrNotRedirect
	}

	slot := l.slots[r.Provider]
	if !slot.CompareAndSwap(false, true) {
		log.Warn().Str("provider", string(r.Provider)).Msg("Redirect ignored, exchange already in flight")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExchangeInFlight, r.Provider)
	}
	defer slot.Store(false)

	tok := l.exchanger.Exchange(ctx, r.Provider, r.Code)
	if tok == nil {
		log.Warn().Str("provider", string(r.Provider)).Msg("Token exchange failed, staying logged out")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExchangeFailed, r.Provider)
	}

	return l.syncer.SyncWithToken(ctx, r.Provider, tok), nil
}

// Start subscribes to events until ctx is done, Stop is called or the channel
// closes. Every event is handled on its own goroutine.
func (l *Listener) Start(ctx context.Context, events <-chan NavigationEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		select {
		case <-l.loopDone:
			// The previous event channel closed. Reap that run first.
			l.cancel()
			l.handlers.Wait()
			l.running = false
		default:
			return fmt.Errorf("listener already running")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.loopDone = make(chan struct{})
	l.running = true

	go l.loop(runCtx, events, l.loopDone)

	log.Info().Str("redirect_origin", l.origin).Msg("Redirect listener started")
	return nil
}

// Stop ends the subscription and waits for in-flight handlers. Handlers are
// not cancelled; a running exchange or sync finishes first.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	l.cancel()
	<-l.loopDone
	l.handlers.Wait()
	l.running = false
	log.Info().Msg("Redirect listener stopped")
}

func (l *Listener) loop(ctx context.Context, events <-chan NavigationEvent, done chan<- struct{}) {
	defer close(done)

	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.handlers.Add(1)
			go func() {
				defer l.handlers.Done()
				l.dispatch(handlerCtx, ev)
			}()
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, ev NavigationEvent) {
	report, err := l.Handle(ctx, ev.URL)
	if errors.Is(err, apperrors.ErrNotRedirect) {
		return
	}
	if l.onOutcome == nil {
		return
	}

	out := Outcome{URL: ev.URL, Report: report, Err: err}
	if r, ok := Route(l.origin, ev.URL); ok {
		out.Provider = r.Provider
	}
	l.onOutcome(out)
}
