package oauthmodel

// TokenResponse is the proxy's answer to a getAccessToken call.
// Only AccessToken is required; the remaining fields are passed through from
// the provider when present.
type TokenResponse struct {
	// AccessToken is the opaque bearer credential for the provider.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType is usually "bearer". Empty is treated as bearer.
	TokenType string `json:"token_type,omitempty"`

	// Scope is the space separated list of granted scopes, if reported.
	Scope string `json:"scope,omitempty"`

	// ExpiresIn is informational only; expiry is not tracked.
	ExpiresIn int `json:"expires_in,omitempty"`

	ErrorResponse
}
