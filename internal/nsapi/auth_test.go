package nsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationURL(t *testing.T) {
	c := newTestClient(t, testCreds(), "http://unused")

	raw := c.AuthorizationURL()

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, redirectURI, q.Get("redirect_uri"))
	assert.Equal(t, oauthScope, q.Get("scope"))

	state := q.Get("state")
	_, err = uuid.Parse(state)
	require.NoError(t, err, "state should be a uuid nonce")
	assert.Equal(t, state, c.state.pendingState)
}

func TestAuthorizationURL_FreshNoncePerAttempt(t *testing.T) {
	c := newTestClient(t, testCreds(), "http://unused")

	first, err := url.Parse(c.AuthorizationURL())
	require.NoError(t, err)

	second, err := url.Parse(c.AuthorizationURL())
	require.NoError(t, err)

	assert.NotEqual(t, first.Query().Get("state"), second.Query().Get("state"))
	// The later attempt overwrites the pending nonce.
	assert.Equal(t, second.Query().Get("state"), c.state.pendingState)
}

func TestSignIn_AuthorizationCodeFlow(t *testing.T) {
	var tokenCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+tokenEndpointPath, func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, redirectURI, r.PostForm.Get("redirect_uri"))
		assert.Empty(t, r.PostForm.Get("refresh_token"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		_, _ = w.Write([]byte(`{"access_token":"A","refresh_token":"R","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /record/v1/account", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	var promptedURL string

	c, err := New(testCreds(),
		WithEndpoints(Endpoints{API: srv.URL, Auth: srv.URL + "/authorize.nl"}),
		WithBrowserOpen(nil),
		WithCodePrompt(func(_ context.Context, authURL string) (string, error) {
			promptedURL = authURL

			return "the-code", nil
		}),
	)
	require.NoError(t, err)

	require.NoError(t, c.SignIn(context.Background()))
	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Equal(t, "A", c.AccessToken())
	assert.Contains(t, promptedURL, "client_id=client-id")
	assert.Equal(t, "the-code", c.state.pendingCode)

	// A follow-up request carries the issued bearer token.
	_, err = c.Get(context.Background(), "/record/v1/account", nil)
	require.NoError(t, err)
}

func TestSignIn_TokenEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c, err := New(testCreds(),
		WithEndpoints(Endpoints{API: srv.URL, Auth: srv.URL + "/authorize.nl"}),
		WithBrowserOpen(nil),
		WithCodePrompt(func(context.Context, string) (string, error) {
			return "bad-code", nil
		}),
	)
	require.NoError(t, err)

	err = c.SignIn(context.Background())
	require.Error(t, err)

	var exErr *AuthExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "authorization_code", exErr.Grant)
	assert.Equal(t, "invalid_grant", exErr.Message)
	assert.Empty(t, c.AccessToken())
}

func TestSignIn_TransportFailure(t *testing.T) {
	c, err := New(testCreds(),
		WithEndpoints(Endpoints{API: "http://127.0.0.1:1", Auth: "http://127.0.0.1:1/authorize.nl"}),
		WithBrowserOpen(nil),
		WithCodePrompt(func(context.Context, string) (string, error) {
			return "the-code", nil
		}),
	)
	require.NoError(t, err)

	err = c.SignIn(context.Background())
	require.Error(t, err)

	var exErr *AuthExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Contains(t, exErr.Message, "cannot obtain token via authorization_code")
}

func TestSignIn_PromptError(t *testing.T) {
	sentinel := errors.New("operator gave up")

	c, err := New(testCreds(),
		WithEndpoints(Endpoints{API: "http://unused", Auth: "http://unused/authorize.nl"}),
		WithBrowserOpen(nil),
		WithCodePrompt(func(context.Context, string) (string, error) {
			return "", sentinel
		}),
	)
	require.NoError(t, err)

	err = c.SignIn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestSignIn_NoPromptConfigured(t *testing.T) {
	c := newTestClient(t, testCreds(), "http://unused")

	err := c.SignIn(context.Background())
	require.Error(t, err)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestSignIn_PreSuppliedTokenProbe(t *testing.T) {
	var probeCalls, tokenCalls atomic.Int32

	mux := http.NewServeMux()
	tokenEndpointHandler(t, mux, "unused", "unused", "", &tokenCalls)
	mux.HandleFunc("GET "+accountProbePath, func(w http.ResponseWriter, r *http.Request) {
		probeCalls.Add(1)
		assert.Equal(t, "Bearer presupplied", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testCreds()
	cfg.AccessToken = "presupplied"

	c := newTestClient(t, cfg, srv.URL)

	require.NoError(t, c.SignIn(context.Background()))
	assert.Equal(t, int32(1), probeCalls.Load())
	assert.Equal(t, int32(0), tokenCalls.Load(), "no exchange for a pre-supplied token")
}

func TestSignIn_PreSuppliedTokenProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"INVALID_LOGIN"}}`))
	}))
	defer srv.Close()

	cfg := testCreds()
	cfg.AccessToken = "expired"

	c := newTestClient(t, cfg, srv.URL)

	err := c.SignIn(context.Background())
	require.Error(t, err)

	// The probe failure surfaces as the executor's own error, untouched.
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "INVALID_LOGIN", reqErr.Message)
}

func TestLogout_ClearsEverything(t *testing.T) {
	c := newTestClient(t, testCreds(), "http://unused")
	seedTokens(c, "tok", "ref")
	c.state.setPendingState("nonce")
	c.state.setPendingCode("code")

	c.Logout()

	assert.Empty(t, c.state.access())
	assert.Empty(t, c.state.refresh())
	assert.Empty(t, c.state.pendingState)
	assert.Empty(t, c.state.pendingCode)

	// Idempotent.
	c.Logout()
	assert.Empty(t, c.state.access())
}

func TestSignIn_TokenlessResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(testCreds(),
		WithEndpoints(Endpoints{API: srv.URL, Auth: srv.URL + "/authorize.nl"}),
		WithBrowserOpen(nil),
		WithCodePrompt(func(context.Context, string) (string, error) {
			return "the-code", nil
		}),
	)
	require.NoError(t, err)

	seedTokens(c, "kept", "keptref")

	err = c.SignIn(context.Background())
	require.Error(t, err)

	var exErr *AuthExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Contains(t, exErr.Message, "cannot obtain token via authorization_code")

	// A body with no error field and no tokens must not wipe the stored pair.
	assert.Equal(t, "kept", c.AccessToken())
	assert.Equal(t, "keptref", c.state.refresh())
}
