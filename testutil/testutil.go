// Package testutil provides the shared fakes used by the package tests: an
// in-memory cache and a scripted stand-in for the dashboard API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MemoryCache is a map-backed cache for tests. Payloads round-trip through
// JSON so fixtures hit the same serialization path as the real backends.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: map[string][]byte{}}
}

func (c *MemoryCache) Load(key string, into any) bool {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, into) == nil
}

func (c *MemoryCache) Save(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
}

// Has reports whether a slot was ever saved.
func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// FakeAPI is a scripted HTTP stand-in for the dashboard backend. Handlers
// are registered per method and path; SetDown makes every request fail with
// 503 so tests can exercise the local-only paths.
type FakeAPI struct {
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	down     bool
	requests []string
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	f := &FakeAPI{mux: http.NewServeMux()}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		down := f.down
		f.mu.Unlock()
		if down {
			http.Error(w, `{"detail":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// URL is the base URL tests hand to the gateway client.
func (f *FakeAPI) URL() string { return f.srv.URL }

// SetDown toggles simulated unavailability.
func (f *FakeAPI) SetDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

// Handle registers a handler under a "METHOD /path" pattern.
func (f *FakeAPI) Handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

// HandleJSON registers a handler that always answers with the given value.
func (f *FakeAPI) HandleJSON(pattern string, v any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, v)
	})
}

// EchoJSON registers a handler that decodes the request body and answers
// with it unchanged, mimicking a backend that accepts whatever it is sent.
func (f *FakeAPI) EchoJSON(pattern string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		var v json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, fmt.Sprintf(`{"detail":%q}`, err.Error()), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(v)
	})
}

// Requests returns every "METHOD path" seen so far, in order.
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// WriteJSON encodes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
