package nsapi

import (
	"log/slog"
	"sync"
)

// tokenPair is the credential pair extracted from a token endpoint response.
type tokenPair struct {
	access  string
	refresh string
}

// tokenState holds the engine's authentication state for the lifetime of the
// process. Expiry is not tracked: an expired access token is discovered
// reactively through a 401 from the API. Nothing here is ever persisted;
// process exit discards all tokens.
type tokenState struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// pendingState is the anti-CSRF nonce for the authorization attempt in
	// flight; pendingCode is the operator-supplied authorization code.
	// Both are transient and overwritten by each sign-in attempt.
	pendingState string
	pendingCode  string
}

// reset clears every field unconditionally.
func (s *tokenState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.refreshToken = ""
	s.pendingState = ""
	s.pendingCode = ""
}

// apply overwrites the token pair. When logToken is set the new access token
// is echoed to the log so an operator can lift it for external tooling.
func (s *tokenState) apply(pair tokenPair, logToken bool, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = pair.access
	s.refreshToken = pair.refresh

	if logToken {
		logger.Info("access token issued", slog.String("access_token", pair.access))
	}
}

func (s *tokenState) access() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.accessToken
}

func (s *tokenState) refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshToken
}

func (s *tokenState) setPendingState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingState = state
}

func (s *tokenState) setPendingCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingCode = code
}
