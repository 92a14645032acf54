package auth_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/viserion/auth"
	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/providers"
	"github.com/stretchr/testify/require"
)

type fakeOAuthConfig struct {
	githubClientID string
	jiraClientID   string
	jiraScopes     []string
	jiraRedirect   string
}

func (f fakeOAuthConfig) GetGitHubClientID() string  { return f.githubClientID }
func (f fakeOAuthConfig) GetJiraClientID() string    { return f.jiraClientID }
func (f fakeOAuthConfig) GetJiraScopes() []string    { return f.jiraScopes }
func (f fakeOAuthConfig) GetJiraRedirectURI() string { return f.jiraRedirect }

func testConfig() fakeOAuthConfig {
	return fakeOAuthConfig{
		githubClientID: "gh-client",
		jiraClientID:   "jira-client",
		jiraScopes:     []string{"read:jira-work", "read:jira-user"},
		jiraRedirect:   "http://localhost:8080",
	}
}

func parse(t *testing.T, raw string) (*url.URL, url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u, u.Query()
}

func TestLoginURL_GitHubHasNoState(t *testing.T) {
	s := auth.NewLoginService(testConfig())

	raw, err := s.LoginURL(providers.GitHub)
	require.NoError(t, err)

	u, q := parse(t, raw)
	require.Equal(t, "github.com", u.Host)
	require.Equal(t, "/login/oauth/authorize", u.Path)
	require.Equal(t, "gh-client", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
	require.False(t, q.Has("state"))
}

func TestLoginURL_JiraCarriesStateAndAudience(t *testing.T) {
	s := auth.NewLoginService(testConfig(), auth.WithStateGenerator(func() string { return "state-1" }))

	raw, err := s.LoginURL(providers.Jira)
	require.NoError(t, err)

	u, q := parse(t, raw)
	require.True(t, strings.HasPrefix(raw, auth.AtlassianEndpoint.AuthURL))
	require.Equal(t, "auth.atlassian.com", u.Host)
	require.Equal(t, "jira-client", q.Get("client_id"))
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "api.atlassian.com", q.Get("audience"))
	require.Equal(t, "consent", q.Get("prompt"))
	require.Equal(t, "read:jira-work read:jira-user", q.Get("scope"))
	require.Equal(t, "http://localhost:8080", q.Get("redirect_uri"))
}

func TestLoginURL_JiraStateIsFreshPerCall(t *testing.T) {
	s := auth.NewLoginService(testConfig())

	a, err := s.LoginURL(providers.Jira)
	require.NoError(t, err)
	b, err := s.LoginURL(providers.Jira)
	require.NoError(t, err)

	_, qa := parse(t, a)
	_, qb := parse(t, b)
	require.NotEmpty(t, qa.Get("state"))
	require.NotEqual(t, qa.Get("state"), qb.Get("state"))
}

func TestLoginURL_Errors(t *testing.T) {
	s := auth.NewLoginService(fakeOAuthConfig{})

	_, err := s.LoginURL(providers.GitHub)
	require.ErrorIs(t, err, apperrors.ErrMissingClientID)

	_, err = s.LoginURL(providers.Jira)
	require.ErrorIs(t, err, apperrors.ErrMissingClientID)

	_, err = auth.NewLoginService(testConfig()).LoginURL(providers.Provider("gitlab"))
	require.ErrorIs(t, err, apperrors.ErrUnknownProvider)
}
