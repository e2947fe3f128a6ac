// Package gateway sends requests to the backend API on behalf of the
// current session.
//
// Each call takes a snapshot of the session and attaches its token as a
// bearer credential, except on the public sign-in endpoints. Failures come back as *RequestError, matchable with
// errors.Is against the Err* sentinels. A 401 on an authenticated call ends
// the session and asks the Navigator to show the sign-in page, once per
// call. Nothing is retried.
package gateway

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks SessionController,Navigator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/session"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultSignInPath = "/login"

	RequestIDHeader = "X-Request-ID"
)

// DefaultPublicPaths are sent without a bearer token, so a rejected login
// attempt cannot end the session that is already open.
var DefaultPublicPaths = []string{"/auth/login", "/auth/register"}

// SessionController is the part of the session the gateway uses.
type SessionController interface {
	Snapshot() session.Snapshot
	Logout(ctx context.Context) error
}

// Navigator moves the user interface to another page.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

type Gateway struct {
	base    string
	client  *http.Client
	session SessionController
	nav     Navigator
	timeout time.Duration
	signIn  string
	public  map[string]bool
	metrics *Metrics
	log     logging.Logger
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(g *Gateway) { g.nav = n }
}

func WithSignInPath(p string) Option {
	return func(g *Gateway) {
		if p != "" {
			g.signIn = p
		}
	}
}

// WithPublicPaths replaces the endpoints that never carry the session token.
func WithPublicPaths(paths ...string) Option {
	return func(g *Gateway) {
		g.public = make(map[string]bool, len(paths))
		for _, p := range paths {
			g.public[cleanPath(p)] = true
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// New returns a gateway for the API rooted at baseURL.
func New(baseURL string, s SessionController, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if s == nil {
		return nil, errors.New("gateway: nil session")
	}

	g := &Gateway{
		base:    strings.TrimRight(u.String(), "/"),
		client:  &http.Client{},
		session: s,
		timeout: DefaultTimeout,
		signIn:  DefaultSignInPath,
		log:     logging.NewNop(),
	}
	WithPublicPaths(DefaultPublicPaths...)(g)
	for _, o := range opts {
		o(g)
	}
	g.log = g.log.With("component", "gateway")
	return g, nil
}

// Request performs one call and returns the normalized JSON payload.
// A 204 response yields a nil payload and no error.
func (g *Gateway) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	start := time.Now()
	raw, status, err := g.do(ctx, method, path, body)
	elapsed := time.Since(start)

	g.metrics.observe(method, outcome(err), elapsed.Seconds())
	if err != nil {
		g.log.Warn(ctx, "request failed", "method", method, "path", path, "status", status, "error", err)
	} else {
		g.log.Debug(ctx, "request done", "method", method, "path", path, "status", status, "duration", elapsed)
	}
	return raw, err
}

func (g *Gateway) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodGet, path, nil)
}

func (g *Gateway) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodPost, path, body)
}

func (g *Gateway) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodPut, path, body)
}

func (g *Gateway) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodDelete, path, nil)
}

// Do performs a request and decodes the normalized payload into T.
func Do[T any](ctx context.Context, g *Gateway, method, path string, body any) (T, error) {
	var out T
	raw, err := g.Request(ctx, method, path, body)
	if err != nil || raw == nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &RequestError{Kind: KindMalformedResponse, Method: method, Path: path, Err: err}
	}
	return out, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, body any) (json.RawMessage, int, error) {
	id := uuid.NewString()
	ctx = logging.WithRequestID(ctx, id)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), payload)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, id)

	snap := g.session.Snapshot()
	bearer := snap.Token != "" && !g.public[cleanPath(path)]
	if bearer {
		req.Header.Set("Authorization", "Bearer "+snap.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, transportError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && bearer {
		g.forceLogout(ctx)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, transportError(ctx, method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := apiMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		return nil, resp.StatusCode, &RequestError{Kind: KindAPI, Method: method, Path: path, Status: resp.StatusCode, Message: msg}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.StatusCode, nil
	}

	ct := resp.Header.Get("Content-Type")
	if !isJSON(ct) {
		return nil, resp.StatusCode, &RequestError{Kind: KindUnexpectedContentType, Method: method, Path: path, ContentType: ct}
	}

	var parsed json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, resp.StatusCode, &RequestError{Kind: KindMalformedResponse, Method: method, Path: path, Err: err}
	}
	return Normalize(parsed), resp.StatusCode, nil
}

// forceLogout runs detached from the request deadline, which may be spent.
func (g *Gateway) forceLogout(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	g.metrics.forcedLogout()
	g.log.Warn(ctx, "session rejected by backend, logging out")

	if err := g.session.Logout(ctx); err != nil {
		g.log.Error(ctx, "forced logout failed", "error", err)
	}
	if g.nav != nil {
		g.nav.Navigate(ctx, g.signIn)
	}
}

func cleanPath(p string) string {
	p, _, _ = strings.Cut(p, "?")
	return strings.Trim(p, "/")
}

func (g *Gateway) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return g.base + "/" + strings.TrimLeft(path, "/")
}

func transportError(ctx context.Context, method, path string, err error) *RequestError {
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimedOut
	}
	return &RequestError{Kind: kind, Method: method, Path: path, Err: err}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func outcome(err error) string {
	var re *RequestError
	if err == nil {
		return "ok"
	}
	if !errors.As(err, &re) {
		return "invalid_request"
	}
	return strings.ReplaceAll(re.Kind.String(), " ", "_")
}
