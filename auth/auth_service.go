package auth

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/viserion/internal/config"
	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/providers"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// AtlassianEndpoint is the Atlassian Cloud 3LO authorization server used by jira.
var AtlassianEndpoint = oauth2.Endpoint{
	AuthURL:  "https://auth.atlassian.com/authorize",
	TokenURL: "https://auth.atlassian.com/oauth/token",
}

const atlassianAudience = "api.atlassian.com"

// LoginService builds the provider authorization URLs that start a login. The
// code returned on redirect is exchanged by the proxy, never here, so the
// configs carry no client secret.
type LoginService struct {
	cfg      config.OAuthConfig
	newState func() string
}

// LoginServiceOption defines a function type to modify the LoginService instance.
type LoginServiceOption func(*LoginService)

// WithStateGenerator sets the state generator (primarily for testing)
func WithStateGenerator(fn func() string) LoginServiceOption {
	return func(s *LoginService) {
		s.newState = fn
	}
}

func NewLoginService(cfg config.OAuthConfig, options ...LoginServiceOption) *LoginService {
	s := &LoginService{
		cfg:      cfg,
		newState: func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// OAuth2Config returns the client configuration for provider.
func (s *LoginService) OAuth2Config(provider providers.Provider) (*oauth2.Config, error) {
	switch provider {
	case providers.GitHub:
		if s.cfg.GetGitHubClientID() == "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingClientID, provider)
		}
		return &oauth2.Config{
			ClientID: s.cfg.GetGitHubClientID(),
			Endpoint: github.Endpoint,
		}, nil
	case providers.Jira:
		if s.cfg.GetJiraClientID() == "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingClientID, provider)
		}
		return &oauth2.Config{
			ClientID:    s.cfg.GetJiraClientID(),
			Endpoint:    AtlassianEndpoint,
			RedirectURL: s.cfg.GetJiraRedirectURI(),
			Scopes:      s.cfg.GetJiraScopes(),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, provider)
}

// LoginURL returns the URL to open in the browser. GitHub gets no state so its
// redirect routes to github; jira always gets a fresh state so its redirect
// routes to jira.
func (s *LoginService) LoginURL(provider providers.Provider) (string, error) {
	cfg, err := s.OAuth2Config(provider)
	if err != nil {
		return "", err
	}

	if provider == providers.GitHub {
		return cfg.AuthCodeURL(""), nil
	}
	return cfg.AuthCodeURL(s.newState(),
		oauth2.SetAuthURLParam("audience", atlassianAudience),
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}
