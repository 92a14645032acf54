package redirect

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/viserion/providers"
)

// Redirect is an OAuth redirect that has been matched to a provider.
type Redirect struct {
	Provider providers.Provider
	Code     string
	State    string
}

// Route matches rawURL against the redirect origin. The URL must share the
// origin's scheme, host and port and carry a non-empty code. The presence of a
// state parameter, not its value, selects jira; its absence selects github.
func Route(redirectOrigin, rawURL string) (Redirect, bool) {
	origin, err := url.Parse(redirectOrigin)
	if err != nil || origin.Host == "" {
		return Redirect{}, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Redirect{}, false
	}
	if !sameOrigin(origin, u) {
		return Redirect{}, false
	}

	q := u.Query()
	code := q.Get("code")
	if code == "" {
		return Redirect{}, false
	}

	r := Redirect{Provider: providers.GitHub, Code: code}
	if q.Has("state") {
		r.Provider = providers.Jira
		r.State = q.Get("state")
	}
	return r, true
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		port(a) == port(b)
}

func port(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}
