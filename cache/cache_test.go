package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-managed-identity/cache"
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func payloadWithToken(token string) *credential.SuccessPayload {
	return &credential.SuccessPayload{AccessToken: token, ExpiresIn: 3600}
}

func countingFetch(calls *atomic.Int32, payload *credential.SuccessPayload) cache.FetchFunc {
	return func(ctx context.Context) (*credential.SuccessPayload, error) {
		calls.Add(1)
		return payload, nil
	}
}

// TestGetOrFetch_HitSkipsFetch tests that a valid entry is served without
// invoking the fetch function
func TestGetOrFetch_HitSkipsFetch(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(cache.WithNowFunc(fixedClock(now)))

	var calls atomic.Int32
	fetch := countingFetch(&calls, payloadWithToken("abc"))

	first, err := c.GetOrFetch(context.Background(), "key-1", false, fetch)
	require.NoError(t, err)
	require.Equal(t, "abc", first.AccessToken)
	require.EqualValues(t, 1, calls.Load())

	second, err := c.GetOrFetch(context.Background(), "key-1", false, fetch)
	require.NoError(t, err)
	require.Equal(t, "abc", second.AccessToken)
	require.EqualValues(t, 1, calls.Load(), "second call must be a cache hit")
}

// TestGetOrFetch_DistinctKeys tests that selectors with different keys do
// not share entries
func TestGetOrFetch_DistinctKeys(t *testing.T) {
	c := cache.New()

	var calls atomic.Int32
	_, err := c.GetOrFetch(context.Background(), "client-1", false, countingFetch(&calls, payloadWithToken("one")))
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), "client-2", false, countingFetch(&calls, payloadWithToken("two")))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	got, err := c.GetOrFetch(context.Background(), "client-1", false, countingFetch(&calls, payloadWithToken("three")))
	require.NoError(t, err)
	require.Equal(t, "one", got.AccessToken)
	require.EqualValues(t, 2, calls.Load())
}

// TestGetOrFetch_ForceRefresh tests that force refresh evicts a valid entry
// and fetches exactly once
func TestGetOrFetch_ForceRefresh(t *testing.T) {
	c := cache.New()

	var calls atomic.Int32
	_, err := c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&calls, payloadWithToken("old")))
	require.NoError(t, err)

	got, err := c.GetOrFetch(context.Background(), "key-1", true, countingFetch(&calls, payloadWithToken("new")))
	require.NoError(t, err)
	require.Equal(t, "new", got.AccessToken)
	require.EqualValues(t, 2, calls.Load())

	// The refreshed value replaced the old entry.
	got, err = c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&calls, payloadWithToken("unused")))
	require.NoError(t, err)
	require.Equal(t, "new", got.AccessToken)
	require.EqualValues(t, 2, calls.Load())
}

// TestGetOrFetch_ExpiryBoundary tests that an entry expiring exactly now is
// refetched, not served
func TestGetOrFetch_ExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	c := cache.New(cache.WithNowFunc(func() time.Time { return now }))

	var calls atomic.Int32
	expiresOn := credential.UnixSeconds(start.Add(time.Hour).Unix())
	payload := &credential.SuccessPayload{AccessToken: "abc", ExpiresOn: expiresOn}

	_, err := c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&calls, payload))
	require.NoError(t, err)

	// One second before expiry the entry is still valid.
	now = start.Add(time.Hour - time.Second)
	_, err = c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&calls, payload))
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	// At the expiry instant the entry must be treated as expired.
	now = start.Add(time.Hour)
	_, err = c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&calls, payload))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load(), "entry expiring exactly now must be refetched")
}

// TestGetOrFetch_FetchErrorNotCached tests that a failed fetch leaves no
// entry behind
func TestGetOrFetch_FetchErrorNotCached(t *testing.T) {
	c := cache.New()

	var calls atomic.Int32
	failing := func(ctx context.Context) (*credential.SuccessPayload, error) {
		calls.Add(1)
		return nil, errors.New("endpoint returned 500")
	}

	_, err := c.GetOrFetch(context.Background(), "key-1", false, failing)
	require.Error(t, err)

	_, err = c.GetOrFetch(context.Background(), "key-1", false, failing)
	require.Error(t, err)
	require.EqualValues(t, 2, calls.Load(), "errors must not populate the cache")
}

// TestGetOrFetch_ConcurrentMiss tests the documented relaxed guarantee: two
// callers observing the same miss both fetch and the later insert wins
func TestGetOrFetch_ConcurrentMiss(t *testing.T) {
	c := cache.New()

	var calls atomic.Int32
	barrier := make(chan struct{})
	fetch := func(ctx context.Context) (*credential.SuccessPayload, error) {
		// Hold both callers inside fetch so each has already observed the
		// miss before either inserts.
		if calls.Add(1) == 2 {
			close(barrier)
		}
		<-barrier
		return payloadWithToken("abc"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, err := c.GetOrFetch(context.Background(), "key-1", false, fetch)
			require.NoError(t, err)
			require.Equal(t, "abc", payload.AccessToken)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 2, calls.Load(), "both concurrent callers fetch on a shared miss")

	// The winning insert serves subsequent readers.
	var after atomic.Int32
	payload, err := c.GetOrFetch(context.Background(), "key-1", false, countingFetch(&after, payloadWithToken("unused")))
	require.NoError(t, err)
	require.Equal(t, "abc", payload.AccessToken)
	require.EqualValues(t, 0, after.Load())
}
