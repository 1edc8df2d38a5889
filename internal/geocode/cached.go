package geocode

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/city-issue-service/internal/domain"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// Store is the cache behind the geocoding gateway. Entries past their TTL are
// treated as absent by the implementation.
type Store interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, result *Result, ttl time.Duration) error
}

// CachedGeocoder layers a TTL cache and per-key request coalescing over the
// rate-limited upstream client. A cache hit returns without consuming a
// rate-limit slot; concurrent misses for the same rounded coordinate share a
// single upstream call.
type CachedGeocoder struct {
	store    Store
	upstream Client
	gate     *IntervalGate
	ttl      time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// NewCachedGeocoder wires the gateway.
func NewCachedGeocoder(store Store, upstream Client, gate *IntervalGate, ttl time.Duration, logger *zap.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		store:    store,
		upstream: upstream,
		gate:     gate,
		ttl:      ttl,
		logger:   logger,
	}
}

// CacheKey rounds the coordinate to ~1m precision so nearby lookups share an
// entry.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.5f,%.5f", lat, lon)
}

// ReverseGeocode resolves an address for the coordinate, serving from cache
// when possible.
func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return nil, apperrors.NewInvalidCoordinate(err)
	}

	key := CacheKey(lat, lon)
	if cached, ok, err := g.store.Get(ctx, key); err != nil {
		g.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	value, err, _ := g.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the entry while we queued.
		if cached, ok, err := g.store.Get(ctx, key); err == nil && ok {
			return cached, nil
		}

		if err := g.gate.Wait(ctx); err != nil {
			return nil, apperrors.NewGeocodeUnavailable(err)
		}

		result, err := g.upstream.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			return nil, apperrors.NewGeocodeUnavailable(err)
		}

		// The unknown-location sentinel is cached like any other result
		// so repeated lookups do not burn request slots.
		if err := g.store.Set(ctx, key, result, g.ttl); err != nil {
			g.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Result), nil
}
