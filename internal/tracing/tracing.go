package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Never attach codes or tokens, only metadata about them.
const (
	AttrProvider   = "provider.name"
	AttrEntity     = "provider.entity"
	AttrHTTPStatus = "http.status_code"
	AttrCount      = "resource.count"
	AttrCycleID    = "sync.cycle_id"
	AttrCodeLength = "oauth.code.length"
)

// Tracer returns the named tracer from the global provider, a no-op unless the
// binary installs an SDK.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
