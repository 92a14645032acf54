package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is what the fake proxy saw.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	ContentType   string
	Body          []byte
}

// FakeProxy stands in for the proxy API. Unregistered routes answer 404.
type FakeProxy struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeProxy starts a proxy that is closed when the test ends.
func NewFakeProxy(t *testing.T) *FakeProxy {
	t.Helper()
	p := &FakeProxy{routes: make(map[string]http.HandlerFunc)}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Handle registers a canned JSON response.
func (p *FakeProxy) Handle(method, path string, status int, body string) {
	p.HandleFunc(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// HandleFunc registers a custom handler.
func (p *FakeProxy) HandleFunc(method, path string, fn http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[routeKey(method, path)] = fn
}

func (p *FakeProxy) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	p.requests = append(p.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	fn, ok := p.routes[routeKey(r.Method, r.URL.Path)]
	p.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	fn(w, r)
}

// Requests returns a copy of every request received so far.
func (p *FakeProxy) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RecordedRequest(nil), p.requests...)
}

// Count returns how many requests hit method+path.
func (p *FakeProxy) Count(method, path string) int {
	n := 0
	for _, r := range p.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method+path.
func (p *FakeProxy) Last(method, path string) (RecordedRequest, bool) {
	reqs := p.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}
