package token

import (
	"context"

	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/store"
	"golang.org/x/oauth2"
)

// Store keeps one access token per provider under the literal key
// providers.AccessTokenKey in the provider's token namespace.
type Store struct {
	s *store.Store
}

func NewStore(s *store.Store) *Store {
	return &Store{s: s}
}

// Save persists the token string. It reports whether the write succeeded.
func (t *Store) Save(ctx context.Context, provider providers.Provider, tok *oauth2.Token) bool {
	spec, ok := providers.Lookup(provider)
	if !ok || tok == nil || tok.AccessToken == "" {
		return false
	}
	return t.s.Put(ctx, spec.TokenStore, providers.AccessTokenKey, tok.AccessToken)
}

// Load returns the stored token, if any. Absence is the normal logged-out state.
func (t *Store) Load(ctx context.Context, provider providers.Provider) (*oauth2.Token, bool) {
	spec, ok := providers.Lookup(provider)
	if !ok {
		return nil, false
	}
	v, ok := t.s.GetString(ctx, spec.TokenStore, providers.AccessTokenKey)
	if !ok || v == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, true
}
