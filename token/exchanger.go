package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/internal/tracing"
	"github.com/jrsteele09/viserion/oauthmodel"
	"github.com/jrsteele09/viserion/providers"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

const (
	exchangePath     = "getAccessToken"
	maxErrorBodySize = 512
)

var tracer = tracing.Tracer("github.com/jrsteele09/viserion/token")

// Exchanger turns an authorization code into an access token by calling the
// proxy's getAccessToken endpoint for the provider.
type Exchanger struct {
	baseURL    string
	httpClient *http.Client
}

// NewExchanger creates an exchanger against the proxy at baseURL. A nil
// httpClient gets a client with a 30 second timeout.
func NewExchanger(baseURL string, httpClient *http.Client) *Exchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Exchanger{baseURL: baseURL, httpClient: httpClient}
}

// Exchange returns the access token for code, or nil when the exchange fails
// for any reason. The cause is logged. Codes are single-use, so a failed
// exchange is never retried.
func (e *Exchanger) Exchange(ctx context.Context, provider providers.Provider, code string) *oauth2.Token {
	tok, err := e.exchange(ctx, provider, code)
	if err != nil {
		log.Err(err).Str("provider", string(provider)).Msg("Failed to exchange authorization code")
		return nil
	}
	log.Info().Str("provider", string(provider)).Msg("Access token obtained")
	return tok
}

func (e *Exchanger) exchange(ctx context.Context, provider providers.Provider, code string) (*oauth2.Token, error) {
	ctx, span := tracer.Start(ctx, "token.Exchange")
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.AttrProvider, string(provider)),
		attribute.Int(tracing.AttrCodeLength, len(code)),
	)

	tok, status, err := e.doExchange(ctx, provider, code)
	if status != 0 {
		span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, status))
	}
	tracing.RecordError(span, err)
	return tok, err
}

func (e *Exchanger) doExchange(ctx context.Context, provider providers.Provider, code string) (*oauth2.Token, int, error) {
	if code == "" {
		return nil, 0, fmt.Errorf("empty authorization code")
	}
	spec, ok := providers.Lookup(provider)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, provider)
	}

	req, err := e.newRequest(ctx, spec, code)
	if err != nil {
		return nil, 0, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, resp.StatusCode, fmt.Errorf("%w %d: %s", apperrors.ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var tr oauthmodel.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		if tr.HasError() {
			return nil, resp.StatusCode, fmt.Errorf("%w (%s)", apperrors.ErrNoAccessToken, tr.ErrorResponse.String())
		}
		return nil, resp.StatusCode, apperrors.ErrNoAccessToken
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tokenType}, resp.StatusCode, nil
}

func (e *Exchanger) newRequest(ctx context.Context, spec providers.Spec, code string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", e.baseURL, spec.Provider, exchangePath)

	var req *http.Request
	var err error
	switch spec.ExchangeMethod {
	case http.MethodGet:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+url.Values{"code": {code}}.Encode(), nil)
	case http.MethodPost:
		body, merr := json.Marshal(oauthmodel.CodeRequest{Code: code})
		if merr != nil {
			return nil, merr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		return nil, fmt.Errorf("unsupported exchange method %q for %s", spec.ExchangeMethod, spec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
