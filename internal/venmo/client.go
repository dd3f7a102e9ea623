// Package venmo is the HTTP gateway to the payments service. It adds
// authentication headers, hands response bodies to the model layer and
// drives the login state machine.
package venmo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/paging"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.venmo.com/v1"

// DefaultMaxCodeAttempts bounds one-time code submissions per challenge.
const DefaultMaxCodeAttempts = 3

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL         string
	DeviceID        string
	UserAgent       string
	HTTPClient      *http.Client
	Logger          *slog.Logger
	MaxCodeAttempts int
}

// Client talks to the payments API on behalf of one credential store. It
// is not safe for concurrent use.
type Client struct {
	baseURL         string
	deviceID        string
	userAgent       string
	http            *http.Client
	log             *slog.Logger
	store           *auth.Store
	maxCodeAttempts int

	state        AuthState
	otpSecret    string
	codeFailures int
}

// New creates a client bound to store.
func New(store *auth.Store, opts Options) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		deviceID:        opts.DeviceID,
		userAgent:       opts.UserAgent,
		http:            opts.HTTPClient,
		log:             opts.Logger,
		store:           store,
		maxCodeAttempts: opts.MaxCodeAttempts,
		state:           StateUnauthenticated,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	if c.maxCodeAttempts <= 0 {
		c.maxCodeAttempts = DefaultMaxCodeAttempts
	}
	if store.IsAuthenticated() {
		c.state = StateAuthenticated
	}
	return c
}

// IsAuthenticated reports whether the client holds usable credentials.
func (c *Client) IsAuthenticated() bool {
	return c.store.IsAuthenticated()
}

// APIError is returned for any non-success response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Message is the service's error message, when the body carried one.
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status, Body: body}
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Error.Message
	}
	return e
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
	authed bool
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// send issues the request and returns the response whatever its status.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s %s request: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.authed {
		token, err := c.store.AccessToken()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", r.method, r.path, err)
	}
	c.log.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// do is send plus a 2xx check.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, newAPIError(r.method, r.path, resp.status, resp.body)
	}
	return resp, nil
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

func decodeEnvelope(path string, body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("decoding %s response: %w", path, err)
	}
	if len(env.Data) == 0 {
		return envelope{}, fmt.Errorf("decoding %s response: missing data", path)
	}
	return env, nil
}

// getRecord fetches a single record wrapped in the data envelope.
func getRecord[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T
	resp, err := c.do(ctx, r)
	if err != nil {
		return zero, err
	}
	env, err := decodeEnvelope(r.path, resp.body)
	if err != nil {
		return zero, err
	}
	v, err := model.Parse[T](env.Data)
	if err != nil {
		return zero, fmt.Errorf("parsing %s response: %w", r.path, err)
	}
	return v, nil
}

// pageFetcher returns a paging.FetchFunc for a listing endpoint. filters
// are sent on every request; cursor parameters override them.
func pageFetcher[T any](c *Client, path string, filters url.Values) paging.FetchFunc[T] {
	return func(ctx context.Context, cursor paging.Cursor, limit int) (paging.Page[T], error) {
		q := url.Values{}
		for k, v := range filters {
			q[k] = append([]string(nil), v...)
		}
		cursor.Apply(q)
		q.Set("limit", strconv.Itoa(limit))

		resp, err := c.do(ctx, request{method: http.MethodGet, path: path, query: q, authed: true})
		if err != nil {
			return paging.Page[T]{}, err
		}
		env, err := decodeEnvelope(path, resp.body)
		if err != nil {
			return paging.Page[T]{}, err
		}
		items, err := model.ParseList[T](env.Data)
		if err != nil {
			return paging.Page[T]{}, fmt.Errorf("parsing %s page: %w", path, err)
		}

		page := paging.Page[T]{Items: items}
		if env.Pagination != nil {
			next, ok, err := paging.ParseCursor(env.Pagination.Next)
			if err != nil {
				return paging.Page[T]{}, err
			}
			if ok {
				page.Next = &next
			}
		}
		return page, nil
	}
}
