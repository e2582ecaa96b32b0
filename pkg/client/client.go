package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labdesk/labctl/pkg/domain"
)

const (
	// DefaultTimeout is the client-wide request timeout.
	DefaultTimeout = 15 * time.Second
	// DefaultRedirectDelay keeps the unauthorized notice on screen before
	// the login redirect fires.
	DefaultRedirectDelay = 2 * time.Second

	maxErrorBody   = 1 << 20  // 1 MB
	maxSuccessBody = 64 << 20 // 64 MB, report exports can be large
)

// Client is the lab reservation API client. It injects the bearer token,
// unwraps the response envelope and applies the shared failure policy:
// notify, clear the token on 401, schedule one login redirect. It never retries.
type Client struct {
	baseURL    string
	tokens     TokenStore
	httpClient *http.Client
	notifier   Notifier
	redirect   *redirectScheduler
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the client-wide timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithNotifier routes user-facing notices to n.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithNavigator enables the login redirect after a 401.
func WithNavigator(nav Navigator, delay time.Duration) Option {
	return func(c *Client) { c.redirect = newRedirectScheduler(nav, delay) }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new API client. A nil tokens store means no token is ever sent.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: zap.NewNop(),
	}
	if c.tokens == nil {
		c.tokens = NewMemoryTokens("")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels a pending login redirect.
func (c *Client) Close() {
	c.redirect.stop()
}

// RedirectPending reports whether a login redirect is scheduled.
func (c *Client) RedirectPending() bool {
	return c.redirect.isPending()
}

// request describes one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         io.Reader
	contentType string

	// skipAuth omits the Authorization header.
	skipAuth bool
	// noRedirectOn401 suppresses the login redirect. The token is still cleared.
	noRedirectOn401 bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, query url.Values, body any, out any) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, query: query, body: body}, out)
}

func (c *Client) del(ctx context.Context, path string, query url.Values, body any) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path, query: query, body: body}, nil)
}

// do sends r and decodes the envelope payload into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	_, body, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	env, _ := parseEnvelope(body)
	if !env.Success {
		return c.businessFailure(r, env)
	}
	if out == nil || isNull(env.Data) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doBlob sends r and returns the raw body. A JSON body is still checked for
// a failing envelope.
func (c *Client) doBlob(ctx context.Context, r request) (*domain.Blob, error) {
	header, body, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	contentType := header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if env, ok := parseEnvelope(body); ok && !env.Success {
			return nil, c.businessFailure(r, env)
		}
	}
	blob := &domain.Blob{ContentType: contentType, Data: body}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		blob.Filename = params["filename"]
	}
	return blob, nil
}

// send performs the HTTP exchange and handles transport and status failures.
func (c *Client) send(ctx context.Context, r request) (http.Header, []byte, error) {
	contentType := r.contentType
	var reqBody io.Reader
	switch {
	case r.raw != nil:
		reqBody = r.raw
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if !r.skipAuth {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		c.logger.Warn("request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", requestID),
			zap.Error(err))
		c.notify(LevelError, msgNetwork)
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	limit := int64(maxSuccessBody)
	if !ok {
		limit = maxErrorBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		c.notify(LevelError, msgNetwork)
		return nil, nil, &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)))

	if !ok {
		return nil, nil, c.statusFailure(r, resp.StatusCode, body)
	}
	return resp.Header, body, nil
}

func (c *Client) statusFailure(r request, status int, body []byte) error {
	msg := serverMessage(body)
	if status == http.StatusUnauthorized {
		c.unauthorized(r, msg)
		return &HTTPError{StatusCode: status, Message: msg}
	}
	c.logger.Warn("request rejected",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", status),
		zap.String("message", msg))
	c.notify(LevelError, statusMessage(status, msg))
	return &HTTPError{StatusCode: status, Message: msg}
}

func (c *Client) businessFailure(r request, env Envelope) error {
	if env.Code == http.StatusUnauthorized {
		c.unauthorized(r, env.Message)
		return &BusinessError{Envelope: env}
	}
	c.logger.Debug("business failure",
		zap.String("path", r.path),
		zap.Int("code", env.Code),
		zap.String("message", env.Message))
	text := env.Message
	if text == "" {
		text = msgRequestFailed
	}
	c.notify(LevelError, text)
	return &BusinessError{Envelope: env}
}

// unauthorized clears the token on every 401. The redirect is skipped for
// calls flagged noRedirectOn401, which surface the server's own message.
func (c *Client) unauthorized(r request, serverMsg string) {
	c.tokens.ClearToken()
	if r.noRedirectOn401 {
		text := serverMsg
		if text == "" {
			text = msgUnauthorized
		}
		c.notify(LevelError, text)
		return
	}
	c.notify(LevelError, msgUnauthorized)
	if c.redirect.schedule() {
		c.logger.Info("login redirect scheduled", zap.Duration("delay", c.redirect.delay))
	}
}

func (c *Client) notify(level Level, text string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(Notice{Level: level, Text: text})
}

// serverMessage extracts a human message from an error body.
func serverMessage(body []byte) string {
	if w, _ := decodeWire(body); w.message != "" {
		return w.message
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
