package backend

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken indicates no credentials are available for the backend.
var ErrNoToken = errors.New("no access token configured")

// TokenSource supplies the bearer token attached to backend requests.
// Implementations own the refresh lifecycle; Invalidate is called after an
// authorization failure so the next Token call can force a refresh.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// StaticTokenSource returns a fixed token, typically read from configuration
// or the CLIPSTUDIO_TOKEN environment variable.
type StaticTokenSource struct {
	mu    sync.Mutex
	token string
}

// NewStaticTokenSource builds a TokenSource around a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token returns the configured token or ErrNoToken when empty.
func (s *StaticTokenSource) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Invalidate clears the token; a static source cannot refresh, so subsequent
// requests fail fast instead of retrying with known-bad credentials.
func (s *StaticTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
