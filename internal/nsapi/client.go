package nsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"

	"github.com/maykon/netsuite/internal/config"
)

const (
	// maxAttempts caps the number of inner attempts per logical call.
	// Retries are blind (no failure classification beyond the built-in
	// 401-refresh path) and have no backoff: this is a low-QPS integration
	// client, not a high-throughput system.
	maxAttempts = 3

	// transientPayloadRead marks a known flaky backend condition that the
	// platform reports as an application error. Calls hitting it return an
	// empty result instead of failing.
	transientPayloadRead = "IO error during request payload read"

	defaultTimeout = 30 * time.Second
	userAgent      = "netsuite-go/0.1"
)

// Endpoints are the three NetSuite service roots used by the engine.
type Endpoints struct {
	API     string // REST API root, .../services/rest
	Auth    string // browser-facing authorization URL (authorize.nl)
	Restlet string // hosted restlet root (restlet.nl)
}

// defaultEndpoints derives the account-specific service roots. Account IDs
// are case-insensitive and use "-" instead of "_" in hostnames.
func defaultEndpoints(accountID string) Endpoints {
	host := strings.ReplaceAll(strings.ToLower(accountID), "_", "-")

	return Endpoints{
		API:     fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/rest", host),
		Auth:    fmt.Sprintf("https://%s.app.netsuite.com/app/login/oauth2/authorize.nl", host),
		Restlet: fmt.Sprintf("https://%s.restlets.api.netsuite.com/app/site/hosting/restlet.nl", host),
	}
}

// CodePrompt blocks until the operator supplies the authorization code
// extracted from the consent-screen redirect.
type CodePrompt func(ctx context.Context, authURL string) (string, error)

// Client is the authenticated request engine: a single facade exposing
// sign-in, generic CRUD, SuiteQL queries, and restlet file transfer. One
// logical call at a time is the intended usage; token refresh is serialized
// internally so overlapping calls cannot invalidate each other's freshly
// issued token.
type Client struct {
	cfg        config.Credentials
	endpoints  Endpoints
	httpClient *http.Client
	logger     *slog.Logger

	promptCode CodePrompt
	openURL    func(string) error

	// refreshMu serializes token refresh; see refreshAccessToken.
	refreshMu sync.Mutex
	state     tokenState
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithEndpoints overrides the account-derived service roots.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

// WithCodePrompt sets the blocking operator prompt used during sign-in.
func WithCodePrompt(p CodePrompt) Option {
	return func(c *Client) { c.promptCode = p }
}

// WithBrowserOpen replaces how the consent URL is launched. Pass nil to
// disable launching entirely.
func WithBrowserOpen(open func(string) error) Option {
	return func(c *Client) { c.openURL = open }
}

// New validates the mandatory credentials and returns a logged-out engine.
// A pre-supplied access token from the credentials is installed so requests
// work before SignIn; it is only validated when SignIn runs.
func New(cfg config.Credentials, opts ...Option) (*Client, error) {
	switch {
	case cfg.AccountID == "":
		return nil, &ConfigurationError{Missing: "account id"}
	case cfg.ClientID == "":
		return nil, &ConfigurationError{Missing: "client id"}
	case cfg.ClientSecret == "":
		return nil, &ConfigurationError{Missing: "client secret"}
	}

	c := &Client{
		cfg:        cfg,
		endpoints:  defaultEndpoints(cfg.AccountID),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		openURL:    browser.OpenURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Establish a clean baseline before installing any pre-supplied token.
	c.Logout()

	if cfg.AccessToken != "" {
		c.state.apply(tokenPair{access: cfg.AccessToken}, false, c.logger)
	}

	return c, nil
}

// AccessToken returns the access token currently held by the engine, or ""
// when logged out.
func (c *Client) AccessToken() string {
	return c.state.access()
}

// Get issues an authenticated GET against the REST API root.
func (c *Client) Get(ctx context.Context, path string, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

// Post issues an authenticated POST against the REST API root.
func (c *Client) Post(ctx context.Context, path string, body []byte, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// Put issues an authenticated PUT against the REST API root.
func (c *Client) Put(ctx context.Context, path string, body []byte, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body, headers)
}

// Delete issues an authenticated DELETE against the REST API root.
func (c *Client) Delete(ctx context.Context, path string, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, headers)
}

// ExecuteQuery runs a SuiteQL statement through the query endpoint. The
// Prefer header requests transient execution semantics from the platform.
func (c *Client) ExecuteQuery(ctx context.Context, query string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("nsapi: encoding query: %w", err)
	}

	headers := http.Header{"Prefer": {"transient"}}

	return c.Post(ctx, "/query/v1/suiteql", body, headers)
}

// do performs one logical call: up to maxAttempts inner attempts, each with
// at most one transparent token refresh. Failed attempts are logged for
// diagnostics and blindly retried without backoff; the first success breaks
// the loop.
func (c *Client) do(ctx context.Context, method, path string, body []byte, headers http.Header) (json.RawMessage, error) {
	url := c.endpoints.API + path

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.attempt(ctx, method, url, body, headers)
		if err == nil {
			return result, nil
		}

		lastErr = err
		c.logger.Warn("request attempt failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		if ctx.Err() != nil {
			return nil, fmt.Errorf("nsapi: request canceled: %w", ctx.Err())
		}
	}

	return nil, &MaxRetriesError{Method: method, URL: url, Attempts: maxAttempts, Last: lastErr}
}

// attempt is one inner attempt: issue the request, refresh-and-replay once
// on 401, then apply application-level error detection to the parsed body.
func (c *Client) attempt(ctx context.Context, method, url string, body []byte, headers http.Header) (json.RawMessage, error) {
	tok := c.state.access()

	resp, err := c.send(ctx, method, url, body, headers, tok)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		if refreshErr := c.refreshAccessToken(ctx, tok); refreshErr != nil {
			return nil, refreshErr
		}

		resp, err = c.send(ctx, method, url, body, headers, c.state.access())
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			status := resp.Status
			drain(resp)

			return nil, &AuthenticationError{Status: status}
		}
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nsapi: reading response body: %w", err)
	}

	c.debugDump(method, url, resp.StatusCode, raw)

	if len(bytes.TrimSpace(raw)) == 0 {
		// 204-style responses carry no body.
		return nil, nil
	}

	if !json.Valid(raw) {
		return nil, &RequestError{Method: method, URL: url, Message: "response body is not valid JSON"}
	}

	if msg, ok := applicationError(raw); ok {
		if strings.Contains(msg, transientPayloadRead) {
			// Known transient backend quirk: soft-success with an empty
			// result instead of an error.
			c.logger.Debug("suppressing transient payload-read error",
				slog.String("method", method),
				slog.String("url", url),
			)

			return nil, nil
		}

		return nil, &RequestError{Method: method, URL: url, Message: msg}
	}

	return json.RawMessage(raw), nil
}

// send issues a single bearer-authenticated HTTP request. Caller-supplied
// headers are applied first so the engine's Authorization header always
// wins.
func (c *Client) send(
	ctx context.Context, method, url string, body []byte, headers http.Header, token string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("nsapi: creating request: %w", err)
	}

	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nsapi: %s %s: %w", method, url, err)
	}

	return resp, nil
}

// refreshAccessToken performs one refresh-token exchange. stale is the
// access token the caller just saw rejected; concurrent callers are
// serialized, and a caller that finds the token already changed while it
// waited skips its own exchange and replays with the new token.
func (c *Client) refreshAccessToken(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.state.access() != stale {
		c.logger.Debug("token already refreshed by a concurrent call")

		return nil
	}

	c.logger.Info("access token rejected, refreshing")

	_, err := c.exchangeToken(ctx, c.state.refresh(), grantRefreshToken)

	return err
}

// applicationError extracts an application-level error message from a
// response body. The platform reports these as either an "error" object
// with a message, or a bare "error" string, regardless of HTTP status.
func applicationError(raw []byte) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", false
	}

	if len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return "", false
	}

	var asString string
	if json.Unmarshal(envelope.Error, &asString) == nil {
		return asString, true
	}

	var asObject struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(envelope.Error, &asObject) == nil && asObject.Message != "" {
		return asObject.Message, true
	}

	return string(envelope.Error), true
}

// debugDump logs the wire-level exchange when debug mode is on. This is a
// diagnostic side channel; nothing reads it for control flow.
func (c *Client) debugDump(method, url string, status int, body []byte) {
	if !c.cfg.Debug {
		return
	}

	c.logger.Debug("response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", status),
		slog.String("body", string(body)),
	)
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
