package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectorRecordOutcomes(t *testing.T) {
	c := NewCollector()

	c.Record("/users/a/messages", 200, "", 100*time.Millisecond)
	c.Record("/users/a/messages", 200, "", 300*time.Millisecond)
	c.Record("/users/a/messages", 429, ErrTypeRateLimit, 50*time.Millisecond)
	c.Record("/users/a/messages", 503, ErrTypeServerError, 50*time.Millisecond)
	c.Record("/users/b/events", 404, ErrTypeClientError, 20*time.Millisecond)

	mail := c.Endpoints()["/users/a/messages"]
	require.EqualValues(t, 4, mail.Count)
	require.EqualValues(t, 2, mail.Success)
	require.EqualValues(t, 2, mail.Errors)
	require.EqualValues(t, 1, mail.RateLimited)
	require.EqualValues(t, 1, mail.ServerErrors)
	require.Equal(t, 50.0, mail.SuccessRate)
	require.Equal(t, 0.05, mail.MinDuration)
	require.Equal(t, 0.3, mail.MaxDuration)
	require.Equal(t, 0.125, mail.AvgDuration)

	global := c.Global()
	require.EqualValues(t, 5, global.Count)
	require.EqualValues(t, 2, global.Success)
	require.EqualValues(t, 3, global.Errors)
	require.Equal(t, 40.0, global.SuccessRate)
}

func TestCollectorNoResponseCountsTotalOnly(t *testing.T) {
	c := NewCollector()
	c.Record("/me", 0, "", 10*time.Millisecond)

	agg := c.Endpoints()["/me"]
	require.EqualValues(t, 1, agg.Count)
	require.EqualValues(t, 0, agg.Success)
	require.EqualValues(t, 0, agg.Errors)
	require.Equal(t, 0.0, agg.SuccessRate)
}

func TestCollectorSuccessRateCountsUndecidedSamples(t *testing.T) {
	c := NewCollector()

	// A call that fails before any HTTP attempt (for example a token
	// fetch failure) records status 0 with no error tag. It still counts
	// against the success rate.
	c.Record("/users/a", 0, "", 5*time.Millisecond)
	c.Record("/users/a", 200, "", 10*time.Millisecond)

	agg := c.Endpoints()["/users/a"]
	require.EqualValues(t, 2, agg.Count)
	require.EqualValues(t, 1, agg.Success)
	require.Equal(t, 50.0, agg.SuccessRate)
	require.Equal(t, 50.0, c.Global().SuccessRate)
}

func TestCollectorNetworkExhaustionTaggedServerError(t *testing.T) {
	c := NewCollector()
	c.Record("/me", 0, ErrTypeServerError, 10*time.Millisecond)

	agg := c.Endpoints()["/me"]
	require.EqualValues(t, 1, agg.Errors)
	require.EqualValues(t, 1, agg.ServerErrors)
}

func TestCollectorSuccessRateRounding(t *testing.T) {
	c := NewCollector()
	c.Record("/users", 200, "", time.Millisecond)
	c.Record("/users", 200, "", time.Millisecond)
	c.Record("/users", 500, ErrTypeServerError, time.Millisecond)

	// 2/3 = 66.666... rounds to 66.67.
	require.Equal(t, 66.67, c.Endpoints()["/users"].SuccessRate)
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector()
	require.Equal(t, Snapshot{}, c.Global())
	require.Empty(t, c.Endpoints())
}
