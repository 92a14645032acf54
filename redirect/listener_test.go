package redirect_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/internal/testutil"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/redirect"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/store"
	"github.com/jrsteele09/viserion/syncer"
	"github.com/jrsteele09/viserion/token"
	"github.com/stretchr/testify/require"
)

type harness struct {
	proxy    *testutil.FakeProxy
	store    *store.Store
	tokens   *token.Store
	listener *redirect.Listener
}

func setupHarness(t *testing.T, options ...redirect.Option) *harness {
	t.Helper()
	return newHarness(t, store.New(store.NewInMemoryRepo()), options...)
}

func newHarness(t *testing.T, s *store.Store, options ...redirect.Option) *harness {
	t.Helper()
	proxy := testutil.NewFakeProxy(t)
	client := &http.Client{Timeout: 5 * time.Second}

	tokens := token.NewStore(s)
	orch := syncer.New(s, tokens, resources.NewFetcher(proxy.URL, client))
	l := redirect.NewListener(origin, token.NewExchanger(proxy.URL, client), orch, options...)

	return &harness{proxy: proxy, store: s, tokens: tokens, listener: l}
}

func (h *harness) stored(p providers.Provider, kind providers.EntityKind) []resources.Resource {
	e, _ := providers.EntityFor(p, kind)
	return store.GetAllAs[resources.Resource](context.Background(), h.store, e.Store)
}

func (h *harness) token(p providers.Provider) string {
	tok, ok := h.tokens.Load(context.Background(), p)
	if !ok {
		return ""
	}
	return tok.AccessToken
}

func TestHandle_GitHubEndToEnd(t *testing.T) {
	h := setupHarness(t)
	h.proxy.Handle(http.MethodGet, "/github/getAccessToken", http.StatusOK, `{"access_token":"tok1"}`)
	h.proxy.Handle(http.MethodGet, "/github/repos", http.StatusOK, `[{"id":1,"name":"repo-a"}]`)
	h.proxy.Handle(http.MethodGet, "/github/followers", http.StatusOK, `[]`)

	report, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=abc123")
	require.NoError(t, err)
	require.True(t, report.OK())

	exchange, ok := h.proxy.Last(http.MethodGet, "/github/getAccessToken")
	require.True(t, ok)
	require.Equal(t, "code=abc123", exchange.Query)

	require.Equal(t, "tok1", h.token(providers.GitHub))
	require.Equal(t, []resources.Resource{{ID: "1", Name: "repo-a"}}, h.stored(providers.GitHub, providers.Repos))
	require.Empty(t, h.stored(providers.GitHub, providers.Followers))
	require.Zero(t, h.proxy.Count(http.MethodPost, "/jira/getAccessToken"))
	require.Equal(t, redirect.Idle, h.listener.State(providers.GitHub))
}

func TestHandle_GitHubEndToEndOnBadger(t *testing.T) {
	s, err := store.Open("badger", t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	h := newHarness(t, s)
	h.proxy.Handle(http.MethodGet, "/github/getAccessToken", http.StatusOK, `{"access_token":"tok1"}`)
	h.proxy.Handle(http.MethodGet, "/github/repos", http.StatusOK, `[{"id":1,"name":"repo-a"}]`)
	h.proxy.Handle(http.MethodGet, "/github/followers", http.StatusOK, `[{"id":9,"login":"octocat"}]`)

	report, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=abc123")
	require.NoError(t, err)
	require.True(t, report.OK(), "%v", report.Failed())

	require.Equal(t, "tok1", h.token(providers.GitHub))
	require.Equal(t, []resources.Resource{{ID: "1", Name: "repo-a"}}, h.stored(providers.GitHub, providers.Repos))
	require.Equal(t, []resources.Resource{{ID: "9", Login: "octocat"}}, h.stored(providers.GitHub, providers.Followers))
}

func TestHandle_JiraEndToEnd(t *testing.T) {
	h := setupHarness(t)
	h.proxy.Handle(http.MethodPost, "/jira/getAccessToken", http.StatusOK, `{"access_token":"jira-tok"}`)
	h.proxy.Handle(http.MethodGet, "/jira/project", http.StatusOK, `[{"id":"10000","name":"Platform"}]`)
	h.proxy.Handle(http.MethodGet, "/jira/dashboard", http.StatusOK, `{"dashboards":[{"id":"d1","name":"Board"}]}`)

	report, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=xyz&state=s1")
	require.NoError(t, err)
	require.True(t, report.OK())

	exchange, ok := h.proxy.Last(http.MethodPost, "/jira/getAccessToken")
	require.True(t, ok)
	require.JSONEq(t, `{"code":"xyz"}`, string(exchange.Body))

	require.Equal(t, "jira-tok", h.token(providers.Jira))
	require.Equal(t, []resources.Resource{{ID: "d1", Name: "Board"}}, h.stored(providers.Jira, providers.Dashboard))
	require.Zero(t, h.proxy.Count(http.MethodGet, "/github/getAccessToken"))
}

func TestHandle_NotARedirect(t *testing.T) {
	h := setupHarness(t)

	for _, u := range []string{"http://localhost:8080/", "https://github.com/login?code=abc", "http://localhost:8080/?state=s1"} {
		report, err := h.listener.Handle(context.Background(), u)
		require.ErrorIs(t, err, apperrors.ErrNotRedirect)
		require.Nil(t, report)
	}
	require.Empty(t, h.proxy.Requests())
}

func TestHandle_FailedExchangeHasNoSideEffects(t *testing.T) {
	h := setupHarness(t)
	h.proxy.Handle(http.MethodGet, "/github/getAccessToken", http.StatusUnauthorized, `{"error":"bad_verification_code"}`)

	report, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=used")
	require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
	require.Nil(t, report)

	require.Empty(t, h.token(providers.GitHub))
	require.Zero(t, h.proxy.Count(http.MethodGet, "/github/repos"))
	require.Equal(t, redirect.Idle, h.listener.State(providers.GitHub))
}

func TestHandle_ConcurrentExchangeIsRejected(t *testing.T) {
	h := setupHarness(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.proxy.HandleFunc(http.MethodGet, "/github/getAccessToken", func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"access_token":"tok1"}`))
	})
	h.proxy.Handle(http.MethodGet, "/github/repos", http.StatusOK, `[]`)
	h.proxy.Handle(http.MethodGet, "/github/followers", http.StatusOK, `[]`)
	h.proxy.Handle(http.MethodPost, "/jira/getAccessToken", http.StatusOK, `{"access_token":"jira-tok"}`)
	h.proxy.Handle(http.MethodGet, "/jira/project", http.StatusOK, `[]`)
	h.proxy.Handle(http.MethodGet, "/jira/dashboard", http.StatusOK, `{"dashboards":[]}`)

	first := make(chan error, 1)
	go func() {
		_, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=one")
		first <- err
	}()
	<-entered
	require.Equal(t, redirect.Exchanging, h.listener.State(providers.GitHub))

	_, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=two")
	require.ErrorIs(t, err, apperrors.ErrExchangeInFlight)

	// The guard is per provider.
	report, err := h.listener.Handle(context.Background(), "http://localhost:8080/?code=three&state=s")
	require.NoError(t, err)
	require.True(t, report.OK())

	close(release)
	require.NoError(t, <-first)
	require.Equal(t, 1, h.proxy.Count(http.MethodGet, "/github/getAccessToken"))
	require.Equal(t, redirect.Idle, h.listener.State(providers.GitHub))
}

func TestListener_StartStop(t *testing.T) {
	var mu sync.Mutex
	var outcomes []redirect.Outcome
	h := setupHarness(t, redirect.WithOutcomeHandler(func(o redirect.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
	}))
	h.proxy.Handle(http.MethodGet, "/github/getAccessToken", http.StatusOK, `{"access_token":"tok1"}`)
	h.proxy.Handle(http.MethodGet, "/github/repos", http.StatusOK, `[{"id":"1","name":"repo-a"}]`)
	h.proxy.Handle(http.MethodGet, "/github/followers", http.StatusOK, `[]`)

	events := make(chan redirect.NavigationEvent)
	require.NoError(t, h.listener.Start(context.Background(), events))
	require.Error(t, h.listener.Start(context.Background(), events))

	events <- redirect.NavigationEvent{URL: "https://example.com/"}
	events <- redirect.NavigationEvent{URL: "http://localhost:8080/?code=abc123"}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) == 1
	}, 5*time.Second, 10*time.Millisecond)

	h.listener.Stop()
	h.listener.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, providers.GitHub, outcomes[0].Provider)
	require.NoError(t, outcomes[0].Err)
	require.True(t, outcomes[0].Report.OK())
	require.Equal(t, "tok1", h.token(providers.GitHub))
}

func TestListener_StopsWhenChannelCloses(t *testing.T) {
	h := setupHarness(t)
	events := make(chan redirect.NavigationEvent)
	require.NoError(t, h.listener.Start(context.Background(), events))
	close(events)

	done := make(chan struct{})
	go func() {
		h.listener.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListener_RestartsAfterChannelCloses(t *testing.T) {
	h := setupHarness(t)
	h.proxy.Handle(http.MethodGet, "/github/getAccessToken", http.StatusOK, `{"access_token":"tok1"}`)
	h.proxy.Handle(http.MethodGet, "/github/repos", http.StatusOK, `[{"id":1,"name":"repo-a"}]`)
	h.proxy.Handle(http.MethodGet, "/github/followers", http.StatusOK, `[]`)

	first := make(chan redirect.NavigationEvent)
	require.NoError(t, h.listener.Start(context.Background(), first))
	close(first)

	second := make(chan redirect.NavigationEvent, 1)
	require.Eventually(t, func() bool {
		return h.listener.Start(context.Background(), second) == nil
	}, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(h.listener.Stop)

	second <- redirect.NavigationEvent{URL: "http://localhost:8080/?code=abc", At: time.Now()}
	require.Eventually(t, func() bool {
		return h.token(providers.GitHub) == "tok1"
	}, 2*time.Second, 10*time.Millisecond)

	require.Error(t, h.listener.Start(context.Background(), second))
}
