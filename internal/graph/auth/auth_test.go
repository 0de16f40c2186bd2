package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, handler http.HandlerFunc) (*Manager, *atomic.Int64) {
	t.Helper()

	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	m := NewManager(Config{TenantID: "tenant-a", ClientID: "app", ClientSecret: "secret"})
	m.conf.TokenURL = srv.URL
	m.HTTPClient = srv.Client()
	return m, &fetches
}

func grantToken(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
}

func TestTokenCached(t *testing.T) {
	m, fetches := newTestManager(t, grantToken)

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	tok, err = m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.EqualValues(t, 1, fetches.Load())
}

func TestTokenRefreshesInsideSkew(t *testing.T) {
	m, fetches := newTestManager(t, grantToken)

	now := time.Now()
	m.Clock = func() time.Time { return now }

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	// Jump to within the skew window of expiry. The cache must be treated
	// as stale even though the token has not strictly expired.
	now = now.Add(3600*time.Second - time.Minute)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, fetches.Load())
}

func TestClearCacheForcesRefetch(t *testing.T) {
	m, fetches := newTestManager(t, grantToken)

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	m.ClearCache()

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, fetches.Load())
}

func TestTokenProviderError(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client","error_description":"AADSTS7000215: Invalid client secret"}`))
	})

	_, err := m.Token(context.Background())
	require.Error(t, err)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid_client", authErr.Code)
	require.Contains(t, authErr.Description, "AADSTS7000215")
}

func TestDefaultScope(t *testing.T) {
	m := NewManager(Config{TenantID: "t", ClientID: "c", ClientSecret: "s"})
	require.Equal(t, []string{defaultScope}, m.conf.Scopes)
	require.Equal(t, "https://login.microsoftonline.com/t/oauth2/v2.0/token", m.TokenURL())
}
