package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphgate/graphgate/internal/graph/concurrency"
	"github.com/graphgate/graphgate/internal/graph/metrics"
	"github.com/graphgate/graphgate/internal/graph/ratelimit"
)

type staticAuth struct {
	cleared atomic.Int64
}

func (a *staticAuth) Token(context.Context) (string, error) { return "test-token", nil }

func (a *staticAuth) ClearCache() { a.cleared.Add(1) }

type clientFixture struct {
	client *Client
	calls  *atomic.Int64
	sleeps *[]time.Duration
}

func newFixture(t *testing.T, handler http.HandlerFunc) *clientFixture {
	t.Helper()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(
		&staticAuth{},
		ratelimit.NewRegistry(nil),
		concurrency.NewGate(4),
		metrics.NewCollector(),
		srv.Client(),
	)
	c.BaseURL = srv.URL

	sleeps := []time.Duration{}
	c.Sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	return &clientFixture{client: c, calls: &calls, sleeps: &sleeps}
}

func TestExecuteSuccess(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"value":[{"id":"m1"}]}`))
	})

	body, err := f.client.Get(context.Background(), "/users/a/messages", url.Values{"$top": []string{"5"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"value":[{"id":"m1"}]}`, string(body))
	require.EqualValues(t, 1, f.calls.Load())

	snap := f.client.Metrics.Endpoints()["/users/a/messages"]
	require.EqualValues(t, 1, snap.Count)
	require.EqualValues(t, 1, snap.Success)
}

func TestExecuteEmptyBody(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	body, err := f.client.Delete(context.Background(), "/users/a/messages/m1")
	require.NoError(t, err)
	require.Nil(t, body)
}

func TestExecuteRetriesOn429ThenSucceeds(t *testing.T) {
	var n atomic.Int64
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	body, err := f.client.Get(context.Background(), "/users/a/messages", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.EqualValues(t, 2, f.calls.Load())
	require.Equal(t, []time.Duration{3 * time.Second}, *f.sleeps)

	// One success-classified sample for the whole logical call.
	snap := f.client.Metrics.Endpoints()["/users/a/messages"]
	require.EqualValues(t, 1, snap.Count)
	require.EqualValues(t, 1, snap.Success)
	require.EqualValues(t, 0, snap.RateLimited)
}

func TestExecute429DefaultAndCappedWait(t *testing.T) {
	var n atomic.Int64
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		switch n.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests) // no Retry-After
		case 2:
			w.Header().Set("Retry-After", "600")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`{}`))
		}
	})
	f.client.RetryMaxWait = 30 * time.Second

	_, err := f.client.Get(context.Background(), "/me", nil)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{5 * time.Second, 30 * time.Second}, *f.sleeps)
}

func TestExecuteServerErrorExhaustion(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := f.client.Get(context.Background(), "/users/a/messages", nil)
	require.Error(t, err)

	var exhausted *RetriesExceededError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 4, exhausted.Attempts)
	require.Equal(t, 500, exhausted.LastStatus)
	require.EqualValues(t, 4, f.calls.Load())

	// Exponential backoff, no jitter: 1s, 2s, 4s.
	require.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, *f.sleeps)

	// Exactly one server_error sample for four network calls.
	snap := f.client.Metrics.Endpoints()["/users/a/messages"]
	require.EqualValues(t, 1, snap.Count)
	require.EqualValues(t, 1, snap.ServerErrors)
}

func TestExecute404NotRetried(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.client.Get(context.Background(), "/users/guest@ext.com/messages", nil)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "message", notFound.ResourceType)
	require.Contains(t, notFound.Hint, "mailbox")
	require.EqualValues(t, 1, f.calls.Load())
	require.Empty(t, *f.sleeps)

	snap := f.client.Metrics.Endpoints()["/users/guest@ext.com/messages"]
	require.EqualValues(t, 1, snap.Errors)
	require.EqualValues(t, 0, snap.RateLimited)
	require.EqualValues(t, 0, snap.ServerErrors)
}

func TestExecute403TypedError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := f.client.Get(context.Background(), "/users", nil)

	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	require.Contains(t, denied.Message, "admin consent")
}

func TestExecuteFreshPermitPerAttempt(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f.client.MaxRetries = 2

	_, err := f.client.Get(context.Background(), "/me", nil)
	require.Error(t, err)

	// Three attempts, three permits from the global limiter.
	require.Equal(t, 3, f.client.Limits.Get("global").Level())
}

func TestExecuteNetworkFailureRetried(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {})
	f.client.BaseURL = "http://127.0.0.1:1" // nothing listens here
	f.client.MaxRetries = 1

	_, err := f.client.Get(context.Background(), "/me", nil)

	var exhausted *RetriesExceededError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 2, exhausted.Attempts)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	snap := f.client.Metrics.Endpoints()["/me"]
	require.EqualValues(t, 1, snap.Count)
	require.EqualValues(t, 1, snap.ServerErrors)
}

func TestExecuteAfterClose(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	require.NoError(t, f.client.Close(context.Background()))

	_, err := f.client.Get(context.Background(), "/me", nil)
	require.ErrorIs(t, err, ErrClientClosed)
}

func TestExecuteInvalidPath(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {})

	_, err := f.client.Get(context.Background(), "me", nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "path", verr.Field)
	require.EqualValues(t, 0, f.calls.Load())
}
