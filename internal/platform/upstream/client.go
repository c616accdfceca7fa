package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"aviratoDash/internal/shared/logging"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 20
)

// Session is the slice of the session store the transport needs.
type Session interface {
	// Token returns the bearer token of a valid session or ErrNotAuthenticated.
	Token(ctx context.Context) (string, error)
	// Clear drops the session after the PMS rejected its token.
	Clear(ctx context.Context) error
}

type Options struct {
	BaseURL        string
	Timeout        time.Duration
	HTTPClient     *http.Client
	BreakerTrips   int
	BreakerCooloff time.Duration
	Logger         *slog.Logger
}

// Client is the single gateway to the PMS REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	session  Session
	logger   *slog.Logger
	breakers *breakerSet
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Timeout overrides the client default for this call.
	Timeout time.Duration
	// Anonymous requests carry no bearer token; only login uses them.
	Anonymous bool
}

func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:  base,
		http:     httpClient,
		timeout:  timeoutOrDefault(opts.Timeout),
		logger:   logging.Component(opts.Logger, "upstream"),
		breakers: newBreakerSet(opts.BreakerTrips, opts.BreakerCooloff, logging.Component(opts.Logger, "upstream")),
	}
}

// WithSession returns a copy of c that authenticates through s. The copy
// shares connection pool and circuit breakers with c.
func (c *Client) WithSession(s Session) *Client {
	clone := *c
	clone.session = s
	return &clone
}

// Do performs req and returns the decoded envelope of a 2xx reply.
//
// 401 on an authenticated call clears the session and yields ErrAuthExpired.
// 404 yields ErrNotFound. Deadline expiry yields ErrTimeout. Anything else
// that is not a successful reply yields an error matching ErrTransport.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	path := "/" + strings.TrimLeft(req.Path, "/")

	var token string
	if !req.Anonymous {
		if c.session == nil {
			return nil, ErrNotAuthenticated
		}
		var err error
		if token, err = c.session.Token(ctx); err != nil {
			return nil, err
		}
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, req, path, token)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := c.breakers.get(path).Execute(func() (interface{}, error) {
		return c.roundTrip(httpReq, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("upstream circuit open", slog.String("path", path))
			return nil, fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
		}
		return nil, err
	}
	raw := result.(*rawResponse)
	c.logger.Debug("upstream response",
		slog.String("method", httpReq.Method),
		slog.String("path", path),
		slog.Int("status", raw.status),
		slog.Duration("elapsed", time.Since(started)),
	)
	c.logger.Log(ctx, logging.LevelTrace, "upstream body", slog.String("path", path), slog.String("body", string(raw.body)))

	switch {
	case raw.status == http.StatusUnauthorized && !req.Anonymous:
		c.clearRejected(context.WithoutCancel(ctx), token, path)
		return nil, ErrAuthExpired
	case raw.status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case raw.status < 200 || raw.status > 299:
		msg := errorMessage(raw.body)
		c.logger.Error("upstream unexpected status", slog.String("path", path), slog.Int("status", raw.status), slog.String("body", msg))
		return nil, &StatusError{Path: path, Status: raw.status, Message: msg}
	}

	env, err := decodeEnvelope(raw.body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !env.OK() {
		return nil, &StatusError{Path: path, Status: raw.status, Message: firstNonEmpty(env.Message, env.Status)}
	}
	return env, nil
}

// clearRejected drops the session only while it still holds the rejected
// token; a 401 arriving after a fresh login leaves the new session alone.
func (c *Client) clearRejected(ctx context.Context, rejected, path string) {
	if current, err := c.session.Token(ctx); err == nil && current != rejected {
		c.logger.Info("late 401 for a replaced token, session kept", slog.String("path", path))
		return
	}
	if err := c.session.Clear(ctx); err != nil {
		c.logger.Error("session clear after 401 failed", slog.Any("error", err))
	}
	c.logger.Warn("upstream rejected token, session cleared", slog.String("path", path))
}

type rawResponse struct {
	status int
	body   []byte
}

// roundTrip runs inside the breaker: only transport failures and 5xx count
// against it, so 401/404 travel back as plain responses.
func (c *Client) roundTrip(httpReq *http.Request, path string) (*rawResponse, error) {
	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(path, err)
	}
	if res.StatusCode >= http.StatusInternalServerError {
		msg := errorMessage(body)
		c.logger.Error("upstream server error", slog.String("path", path), slog.Int("status", res.StatusCode), slog.String("body", msg))
		return nil, &StatusError{Path: path, Status: res.StatusCode, Message: msg}
	}
	return &rawResponse{status: res.StatusCode, body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, req Request, path, token string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func classifyTransportError(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
}

type breakerSet struct {
	mu       sync.Mutex
	trips    uint32
	cooloff  time.Duration
	logger   *slog.Logger
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(trips int, cooloff time.Duration, logger *slog.Logger) *breakerSet {
	if trips <= 0 {
		trips = 5
	}
	if cooloff <= 0 {
		cooloff = 30 * time.Second
	}
	return &breakerSet{
		trips:    uint32(trips),
		cooloff:  cooloff,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *breakerSet) get(path string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[path]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        path,
		MaxRequests: 1,
		Timeout:     b.cooloff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.trips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("upstream breaker state change", slog.String("path", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	b.breakers[path] = cb
	return cb
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return defaultTimeout
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
