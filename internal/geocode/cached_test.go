package geocode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*Result
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]*Result),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (*Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	result, ok := s.entries[key]
	return result, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, result *Result, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = result
	s.ttls[key] = ttl
	return nil
}

type countingUpstream struct {
	calls  atomic.Int64
	result *Result
	err    error
	delay  time.Duration
}

func (u *countingUpstream) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	u.calls.Add(1)
	if u.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(u.delay):
		}
	}
	if u.err != nil {
		return nil, u.err
	}
	return u.result, nil
}

func newTestGeocoder(store Store, upstream Client) *CachedGeocoder {
	return NewCachedGeocoder(store, upstream, NewIntervalGate(0), 24*time.Hour, zap.NewNop())
}

func TestCachedGeocoderRejectsInvalidCoordinates(t *testing.T) {
	upstream := &countingUpstream{result: &Result{DisplayName: "somewhere"}}
	geocoder := newTestGeocoder(newMemoryStore(), upstream)

	_, err := geocoder.ReverseGeocode(context.Background(), 91, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCoordinate))
	assert.EqualValues(t, 0, upstream.calls.Load(), "no network call for invalid input")
}

func TestCachedGeocoderCacheHitSkipsUpstream(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{result: &Result{DisplayName: "123 Main St, Springfield"}}
	geocoder := newTestGeocoder(store, upstream)

	first, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, "123 Main St, Springfield", first.DisplayName)
	assert.EqualValues(t, 1, upstream.calls.Load())

	second, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, first.DisplayName, second.DisplayName)
	assert.EqualValues(t, 1, upstream.calls.Load(), "repeat lookup must be served from cache")

	assert.Equal(t, 24*time.Hour, store.ttls[CacheKey(40.7128, -74.0060)])
}

func TestCachedGeocoderCoalescesConcurrentMisses(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{result: &Result{DisplayName: "City Hall"}, delay: 20 * time.Millisecond}
	geocoder := newTestGeocoder(store, upstream)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
			assert.NoError(t, err)
			assert.Equal(t, "City Hall", result.DisplayName)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, upstream.calls.Load(), "same-key misses must share one upstream call")
}

func TestCachedGeocoderDistinctKeysEachCallUpstream(t *testing.T) {
	upstream := &countingUpstream{result: &Result{DisplayName: "somewhere"}}
	geocoder := newTestGeocoder(newMemoryStore(), upstream)

	_, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	_, err = geocoder.ReverseGeocode(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)

	assert.EqualValues(t, 2, upstream.calls.Load())
}

func TestCachedGeocoderCachesUnknownLocationSentinel(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{result: &Result{DisplayName: UnknownLocation}}
	geocoder := newTestGeocoder(store, upstream)

	result, err := geocoder.ReverseGeocode(context.Background(), 0.5, 0.5)
	require.NoError(t, err)
	assert.True(t, result.Unknown())

	_, err = geocoder.ReverseGeocode(context.Background(), 0.5, 0.5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upstream.calls.Load(), "sentinel results are cached too")
}

func TestCachedGeocoderUpstreamFailureIsNotCached(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingUpstream{err: errors.New("upstream down")}
	geocoder := newTestGeocoder(store, upstream)

	_, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGeocodeUnavailable))
	assert.Empty(t, store.entries)

	// A later attempt retries the upstream instead of serving the failure.
	upstream.err = nil
	upstream.result = &Result{DisplayName: "recovered"}
	result, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.DisplayName)
}

func TestCachedGeocoderCacheReadFailureFallsThrough(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	upstream := &countingUpstream{result: &Result{DisplayName: "somewhere"}}
	geocoder := newTestGeocoder(store, upstream)

	result, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, "somewhere", result.DisplayName)
	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestCacheKeyRoundsCoordinates(t *testing.T) {
	assert.Equal(t, CacheKey(40.712801, -74.006002), CacheKey(40.712799, -74.005998))
	assert.NotEqual(t, CacheKey(40.7128, -74.0060), CacheKey(40.7129, -74.0060))
}
