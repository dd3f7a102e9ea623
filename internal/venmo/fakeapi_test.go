package venmo

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/auth"
)

const (
	testDeviceID  = "3c1b7a8e-5d0f-4c41-9a7e-2f64d0b1c9aa"
	testUserAgent = "tally-test/1.0"
	testUserID    = "2541220786958336308"
	testToken     = "tok-abc"
)

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// fakeAPI is an httptest server routed with chi that records every request.
type fakeAPI struct {
	chi.Router
	srv *httptest.Server

	mu       sync.Mutex
	requests []recorded
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{Router: chi.NewRouter()}
	f.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
			f.mu.Lock()
			f.requests = append(f.requests, recorded{
				Method: r.Method,
				Path:   r.URL.Path,
				Query:  r.URL.Query(),
				Header: r.Header.Clone(),
				Body:   body,
			})
			f.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) URL() string {
	return f.srv.URL
}

func (f *fakeAPI) Requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

// newTestClient returns a client against f with an empty credential store.
func newTestClient(t *testing.T, f *fakeAPI) (*Client, *auth.Store) {
	t.Helper()
	store, err := auth.Load(t.TempDir())
	require.NoError(t, err)
	c := New(store, Options{
		BaseURL:   f.URL(),
		DeviceID:  testDeviceID,
		UserAgent: testUserAgent,
	})
	return c, store
}

// newAuthedClient returns a client whose store already holds credentials.
func newAuthedClient(t *testing.T, f *fakeAPI) (*Client, *auth.Store) {
	t.Helper()
	store, err := auth.Load(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(testUserID, testToken))
	c := New(store, Options{
		BaseURL:   f.URL(),
		DeviceID:  testDeviceID,
		UserAgent: testUserAgent,
	})
	return c, store
}

func fixture(t *testing.T, name string) json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, data))
	return buf.Bytes()
}

// withField returns raw with one top-level field replaced.
func withField(t *testing.T, raw json.RawMessage, key string, value any) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, err := json.Marshal(value)
	require.NoError(t, err)
	m[key] = v
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// writePage writes a listing envelope; next is omitted when empty.
func writePage(w http.ResponseWriter, items []json.RawMessage, next string) {
	if items == nil {
		items = []json.RawMessage{}
	}
	env := map[string]any{"data": items, "pagination": map[string]any{}}
	if next != "" {
		env["pagination"] = map[string]any{"next": next}
	}
	writeJSON(w, http.StatusOK, env)
}

// queryInt reads an integer query parameter, zero when absent.
func queryInt(q url.Values, key string) int {
	n, _ := strconv.Atoi(q.Get(key))
	return n
}
