// Package popup is the read side used by the extension popup: stored tokens,
// cached collections, live fetches and login URLs.
package popup

import (
	"context"
	"time"

	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/store"
	"golang.org/x/oauth2"
)

type TokenLoader interface {
	Load(ctx context.Context, provider providers.Provider) (*oauth2.Token, bool)
}

type Fetcher interface {
	Fetch(ctx context.Context, provider providers.Provider, kind providers.EntityKind, accessToken string) ([]resources.Resource, bool)
}

type LoginURLBuilder interface {
	LoginURL(provider providers.Provider) (string, error)
}

// EntityStatus summarises one cached collection.
type EntityStatus struct {
	Kind      providers.EntityKind `json:"kind"`
	Store     string               `json:"store"`
	Count     int                  `json:"count"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
}

// ProviderStatus reports whether a provider is logged in and what is cached.
type ProviderStatus struct {
	Provider providers.Provider `json:"provider"`
	LoggedIn bool               `json:"logged_in"`
	Entities []EntityStatus     `json:"entities"`
}

type Service struct {
	store   *store.Store
	tokens  TokenLoader
	fetcher Fetcher
	login   LoginURLBuilder
}

func NewService(s *store.Store, tokens TokenLoader, fetcher Fetcher, login LoginURLBuilder) *Service {
	return &Service{store: s, tokens: tokens, fetcher: fetcher, login: login}
}

// AccessTokenFromStore returns the stored token string for provider.
func (s *Service) AccessTokenFromStore(ctx context.Context, provider providers.Provider) (string, bool) {
	tok, ok := s.tokens.Load(ctx, provider)
	if !ok {
		return "", false
	}
	return tok.AccessToken, true
}

// ResourcesFromStore returns the cached collection. Unknown pairs and empty
// stores both yield an empty slice.
func (s *Service) ResourcesFromStore(ctx context.Context, provider providers.Provider, kind providers.EntityKind) []resources.Resource {
	entity, ok := providers.EntityFor(provider, kind)
	if !ok {
		return []resources.Resource{}
	}
	return store.GetAllAs[resources.Resource](ctx, s.store, entity.Store)
}

// FetchResourcesLive asks the proxy directly. Nothing is persisted.
func (s *Service) FetchResourcesLive(ctx context.Context, provider providers.Provider, kind providers.EntityKind, accessToken string) ([]resources.Resource, bool) {
	return s.fetcher.Fetch(ctx, provider, kind, accessToken)
}

func (s *Service) LoginURL(provider providers.Provider) (string, error) {
	return s.login.LoginURL(provider)
}

// Logout forgets the provider's stored token and empties its cached
// collections. Nothing is revoked upstream. It reports whether every
// namespace was cleared.
func (s *Service) Logout(ctx context.Context, provider providers.Provider) bool {
	spec, ok := providers.Lookup(provider)
	if !ok {
		return false
	}
	cleared := s.store.Clear(ctx, spec.TokenStore)
	for _, e := range spec.Entities {
		if !s.store.Clear(ctx, e.Store) {
			cleared = false
		}
	}
	return cleared
}

// Status reports every provider in providers.All order.
func (s *Service) Status(ctx context.Context) []ProviderStatus {
	all := providers.All()
	out := make([]ProviderStatus, 0, len(all))
	for _, p := range all {
		spec := providers.MustLookup(p)
		_, loggedIn := s.tokens.Load(ctx, spec.Provider)
		ps := ProviderStatus{
			Provider: spec.Provider,
			LoggedIn: loggedIn,
			Entities: make([]EntityStatus, 0, len(spec.Entities)),
		}
		for _, e := range spec.Entities {
			ps.Entities = append(ps.Entities, s.entityStatus(ctx, e))
		}
		out = append(out, ps)
	}
	return out
}

func (s *Service) entityStatus(ctx context.Context, e providers.Entity) EntityStatus {
	entries := s.store.Entries(ctx, e.Store)
	st := EntityStatus{Kind: e.Kind, Store: e.Store.String(), Count: len(entries)}
	for _, entry := range entries {
		if st.UpdatedAt == nil || entry.UpdatedAt.After(*st.UpdatedAt) {
			at := entry.UpdatedAt
			st.UpdatedAt = &at
		}
	}
	return st
}
