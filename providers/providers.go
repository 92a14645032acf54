package providers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/jrsteele09/viserion/store"
)

// Provider identifies an upstream OAuth integration.
type Provider string

const (
	// GitHub is the source-code host. Its redirect carries no state parameter.
	GitHub Provider = "github"
	// Jira is the issue tracker. Its redirect always carries a state parameter.
	Jira Provider = "jira"
)

// EntityKind is the path segment the proxy uses for a resource collection.
type EntityKind string

const (
	Repos     EntityKind = "repos"
	Followers EntityKind = "followers"
	Project   EntityKind = "project"
	Dashboard EntityKind = "dashboard"
)

// AccessTokenKey is the literal key every token store keeps its token under.
const AccessTokenKey = "access_token"

// Namespace is the store location of a token or resource collection.
type Namespace = store.Namespace

// Entity describes one resource collection owned by a provider.
type Entity struct {
	Kind  EntityKind
	Store Namespace
	// Envelope names the field the proxy wraps the collection in, if any.
	Envelope string
}

// Spec describes how to talk to the proxy for one provider.
type Spec struct {
	Provider Provider
	// ExchangeMethod is GET (code in query) or POST (code in JSON body).
	ExchangeMethod string
	TokenStore     Namespace
	Entities       []Entity
}

// Entity looks up the entity of the given kind.
func (s Spec) Entity(kind EntityKind) (Entity, bool) {
	for _, e := range s.Entities {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entity{}, false
}

const (
	accessTokenCollection = "AccessTokenStore"
)

var registry = map[Provider]Spec{
	GitHub: {
		Provider:       GitHub,
		ExchangeMethod: http.MethodGet,
		TokenStore:     Namespace{Database: "GitHubAccessToken", Collection: accessTokenCollection},
		Entities: []Entity{
			{Kind: Repos, Store: Namespace{Database: "GitHubRepos", Collection: "ReposStore"}},
			{Kind: Followers, Store: Namespace{Database: "GitHubFollowers", Collection: "FollowersStore"}},
		},
	},
	Jira: {
		Provider:       Jira,
		ExchangeMethod: http.MethodPost,
		TokenStore:     Namespace{Database: "JiraAccessToken", Collection: accessTokenCollection},
		Entities: []Entity{
			{Kind: Project, Store: Namespace{Database: "JiraProjects", Collection: "ProjectsStore"}},
			{Kind: Dashboard, Store: Namespace{Database: "JiraDashboards", Collection: "DashboardsStore"}, Envelope: "dashboards"},
		},
	},
}

// Lookup returns the Spec registered for p.
func Lookup(p Provider) (Spec, bool) {
	s, ok := registry[p]
	return s, ok
}

// MustLookup is Lookup for providers known at compile time.
func MustLookup(p Provider) Spec {
	s, ok := registry[p]
	if !ok {
		panic(fmt.Sprintf("providers: unknown provider %q", p))
	}
	return s
}

// All returns every registered provider in a stable order.
func All() []Provider {
	all := make([]Provider, 0, len(registry))
	for p := range registry {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Parse converts user input into a registered provider.
func Parse(s string) (Provider, error) {
	p := Provider(s)
	if _, ok := registry[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// EntityFor resolves a provider/kind pair.
func EntityFor(p Provider, kind EntityKind) (Entity, bool) {
	s, ok := registry[p]
	if !ok {
		return Entity{}, false
	}
	return s.Entity(kind)
}
