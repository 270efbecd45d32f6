package nsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// redirectURI is the fixed redirect target registered with the
	// connected integration. Nothing listens there; the operator copies
	// the code query parameter out of the redirected URL.
	redirectURI = "https://localhost:8080/callback"

	// oauthScope requests REST and restlet access.
	oauthScope = "rest_webservices restlets"

	tokenEndpointPath = "/auth/oauth2/v1/token"

	// accountProbePath is the lightweight authenticated call used to
	// validate a pre-supplied access token.
	accountProbePath = "/record/v1/account"
)

// grantKind selects the OAuth2 exchange mode on the token endpoint.
type grantKind string

const (
	grantAuthorizationCode grantKind = "authorization_code"
	grantRefreshToken      grantKind = "refresh_token"
)

// AuthorizationResponse is the token endpoint's success payload. It is not
// retained beyond extraction of the token pair. ExpiresIn is parsed but
// unused; expiry is discovered reactively via 401.
type AuthorizationResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    json.Number `json:"expires_in"`
	TokenType    string      `json:"token_type"`
}

// AuthorizationURL generates a fresh anti-CSRF nonce, records it as the
// pending sign-in state, and composes the consent-screen URL the operator
// must visit. Any previous pending nonce is overwritten; a single sign-in
// in flight is assumed.
func (c *Client) AuthorizationURL() string {
	state := uuid.NewString()
	c.state.setPendingState(state)

	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", oauthScope)
	q.Set("state", state)

	return c.endpoints.Auth + "?" + q.Encode()
}

// SignIn establishes an authenticated session. A pre-supplied access token
// short-circuits the interactive flow and is validated with a lightweight
// account probe through the executor; any failure there surfaces as the
// executor's own error. Otherwise the operator is sent to the consent
// screen and the resulting code is exchanged for a token pair.
//
// The operator prompt is a single blocking request with no timeout of its
// own beyond ctx.
func (c *Client) SignIn(ctx context.Context) error {
	if c.cfg.AccessToken != "" {
		c.logger.Info("validating pre-supplied access token")

		_, err := c.Get(ctx, accountProbePath, nil)

		return err
	}

	authURL := c.AuthorizationURL()

	c.logger.Info("authorization required", slog.String("url", authURL))

	if c.openURL != nil {
		if openErr := c.openURL(authURL); openErr != nil {
			c.logger.Warn("failed to open browser",
				slog.String("error", openErr.Error()),
			)
		}
	}

	if c.promptCode == nil {
		return &ConfigurationError{Missing: "authorization code prompt"}
	}

	code, err := c.promptCode(ctx, authURL)
	if err != nil {
		return fmt.Errorf("nsapi: reading authorization code: %w", err)
	}

	c.state.setPendingCode(code)

	_, err = c.exchangeToken(ctx, code, grantAuthorizationCode)

	return err
}

// Logout unconditionally clears the engine's token state. Idempotent; also
// invoked during construction to establish a clean baseline.
func (c *Client) Logout() {
	c.state.reset()
}

// exchangeToken trades an authorization code or refresh token for a new
// token pair via the token endpoint, authenticating with HTTP Basic
// base64(clientID:clientSecret). On success the pair is applied to the
// engine state and the raw response returned.
func (c *Client) exchangeToken(ctx context.Context, token string, grant grantKind) (*AuthorizationResponse, error) {
	form := url.Values{}
	form.Set("grant_type", string(grant))

	switch grant {
	case grantAuthorizationCode:
		form.Set("code", token)
		form.Set("redirect_uri", redirectURI)
	case grantRefreshToken:
		form.Set("refresh_token", token)
	}

	endpoint := c.endpoints.API + tokenEndpointPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, exchangeFailed(grant, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, exchangeFailed(grant, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exchangeFailed(grant, err)
	}

	c.debugDump(http.MethodPost, endpoint, resp.StatusCode, raw)

	// An error field anywhere in the response is a hard failure regardless
	// of HTTP status.
	if msg, ok := applicationError(raw); ok {
		if msg == "" {
			msg = fmt.Sprintf("token endpoint rejected the %s grant", grant)
		}

		return nil, &AuthExchangeError{Grant: string(grant), Message: msg}
	}

	var ar AuthorizationResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, exchangeFailed(grant, err)
	}

	// A body with neither an error field nor an access token must not be
	// applied: it would wipe the stored pair while reporting success.
	if ar.AccessToken == "" {
		return nil, exchangeFailed(grant, fmt.Errorf("token endpoint returned no access token (status %s)", resp.Status))
	}

	c.state.apply(tokenPair{access: ar.AccessToken, refresh: ar.RefreshToken}, c.cfg.LogToken, c.logger)

	c.logger.Info("token pair obtained", slog.String("grant", string(grant)))

	return &ar, nil
}

// exchangeFailed wraps transport and parse failures in an AuthExchangeError
// with the message generalized per grant kind.
func exchangeFailed(grant grantKind, err error) error {
	return &AuthExchangeError{
		Grant:   string(grant),
		Message: fmt.Sprintf("cannot obtain token via %s", grant),
		Err:     err,
	}
}
