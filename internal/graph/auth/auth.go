// Package auth manages the application-only OAuth2 credential used for every
// upstream Microsoft Graph call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	defaultScope   = "https://graph.microsoft.com/.default"

	// DefaultSkew refreshes the cached token this long before its actual
	// expiry so in-flight requests never carry an expired credential.
	DefaultSkew = 5 * time.Minute
)

// Error is an authentication failure surfaced from the identity provider.
// Code and Description carry the provider's response verbatim.
type Error struct {
	Code        string
	Description string
}

func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authentication failed: %s: %s", e.Code, e.Description)
	}
	return "authentication failed: " + e.Code
}

// Details returns the structured form consumed by the HTTP boundary.
func (e *Error) Details() map[string]any {
	return map[string]any{
		"provider_code": e.Code,
	}
}

// Config carries the client-credentials identity of this application.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Scope defaults to the Graph application scope when empty.
	Scope string
}

// Manager caches a bearer token for the configured identity and refreshes it
// ahead of expiry. One mutex serializes every operation, so concurrent
// callers during a refresh wait for the single in-flight fetch instead of
// stampeding the identity provider.
type Manager struct {
	Skew       time.Duration
	Clock      func() time.Time
	HTTPClient *http.Client

	mu    sync.Mutex
	conf  *clientcredentials.Config
	token *oauth2.Token
}

// NewManager builds a manager for the given identity.
func NewManager(cfg Config) *Manager {
	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}
	return &Manager{
		Skew: DefaultSkew,
		conf: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf(tokenURLFormat, cfg.TenantID),
			Scopes:       []string{scope},
		},
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cache is
// empty or within the refresh skew of expiry.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != nil && m.token.Expiry.After(m.now().Add(m.skew())) {
		return m.token.AccessToken, nil
	}

	if m.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
	}

	tok, err := m.conf.Token(ctx)
	if err != nil {
		return "", translateErr(err)
	}

	m.token = tok
	return tok.AccessToken, nil
}

// ClearCache drops the cached token so the next Token call fetches a fresh
// one. Used after an upstream 401.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
}

// CheckHealth verifies a token can be acquired. Intended for the detailed
// health endpoint.
func (m *Manager) CheckHealth(ctx context.Context) error {
	_, err := m.Token(ctx)
	return err
}

// TokenURL exposes the identity provider endpoint, for diagnostics output.
func (m *Manager) TokenURL() string { return m.conf.TokenURL }

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Manager) skew() time.Duration {
	if m.Skew > 0 {
		return m.Skew
	}
	return DefaultSkew
}

// translateErr lifts oauth2 retrieval failures into our typed Error, keeping
// the provider's own error code and description.
func translateErr(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		code := rerr.ErrorCode
		if code == "" {
			code = fmt.Sprintf("http_%d", rerr.Response.StatusCode)
		}
		desc := rerr.ErrorDescription
		if desc == "" {
			desc = strings.TrimSpace(string(rerr.Body))
		}
		return &Error{Code: code, Description: desc}
	}
	return fmt.Errorf("token fetch failed: %w", err)
}
