package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/jrsteele09/viserion/internal/tracing"
	"github.com/jrsteele09/viserion/providers"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

const maxErrorBodySize = 512

var tracer = tracing.Tracer("github.com/jrsteele09/viserion/resources")

// Fetcher reads resource collections from the proxy with a bearer token.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a fetcher against the proxy at baseURL. A nil httpClient
// gets a client with a 30 second timeout.
func NewFetcher(baseURL string, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{baseURL: baseURL, httpClient: httpClient}
}

// Fetch returns the collection for provider/kind, or nil and false on any
// failure. The cause is logged.
func (f *Fetcher) Fetch(ctx context.Context, provider providers.Provider, kind providers.EntityKind, accessToken string) ([]Resource, bool) {
	ctx, span := tracer.Start(ctx, "resources.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String(tracing.AttrProvider, string(provider)),
		attribute.String(tracing.AttrEntity, string(kind)),
	)

	items, status, err := f.fetch(ctx, provider, kind, accessToken)
	if status != 0 {
		span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, status))
	}
	if err != nil {
		tracing.RecordError(span, err)
		log.Err(err).Str("provider", string(provider)).Str("entity", string(kind)).Msg("Failed to fetch resources")
		return nil, false
	}
	span.SetAttributes(attribute.Int(tracing.AttrCount, len(items)))
	log.Debug().Str("provider", string(provider)).Str("entity", string(kind)).Int("count", len(items)).Msg("Fetched resources")
	return items, true
}

func (f *Fetcher) fetch(ctx context.Context, provider providers.Provider, kind providers.EntityKind, accessToken string) ([]Resource, int, error) {
	entity, ok := providers.EntityFor(provider, kind)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s/%s", apperrors.ErrUnknownEntity, provider, kind)
	}
	if accessToken == "" {
		return nil, 0, apperrors.ErrNotLoggedIn
	}

	endpoint := fmt.Sprintf("%s/%s/%s", f.baseURL, provider, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client(ctx, accessToken).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, resp.StatusCode, fmt.Errorf("%w %d: %s", apperrors.ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	items, err := Decode(entity, body)
	return items, resp.StatusCode, err
}

// client attaches "Authorization: Bearer <token>" to every request.
func (f *Fetcher) client(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	c.Timeout = f.httpClient.Timeout
	return c
}

// Decode parses a proxy response body for entity, unwrapping its envelope
// field first when it has one.
func Decode(entity providers.Entity, body []byte) ([]Resource, error) {
	if entity.Envelope != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode %s envelope: %w", entity.Kind, err)
		}
		inner, ok := envelope[entity.Envelope]
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrMissingEnvelope, entity.Envelope)
		}
		body = inner
	}

	var items []Resource
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", entity.Kind, err)
	}
	if items == nil {
		items = []Resource{}
	}
	return items, nil
}
