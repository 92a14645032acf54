package config

type OAuthConfig interface {
	GetGitHubClientID() string
	GetJiraClientID() string
	GetJiraScopes() []string
	GetJiraRedirectURI() string
}

type OAuth struct {
	s Settings
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetGitHubClientID() string {
	return o.s.GitHubClientID
}

func (o OAuth) GetJiraClientID() string {
	return o.s.JiraClientID
}

func (o OAuth) GetJiraScopes() []string {
	return append([]string(nil), o.s.JiraScopes...)
}

// GetJiraRedirectURI defaults to the redirect origin, which is where both
// providers send the browser back to.
func (o OAuth) GetJiraRedirectURI() string {
	if o.s.JiraRedirect != "" {
		return o.s.JiraRedirect
	}
	return o.s.RedirectOrigin
}
