package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeMirror/internal/domain/models"
	domsvc "TradeMirror/internal/domain/service"
	pkgcache "TradeMirror/pkg/cache"
)

const profilesCacheKey = "profiles:all"

// CachedSource caches the profile list from a slower source. Profile sets
// change rarely, so a short TTL keeps remote lookups off the request path.
type CachedSource struct {
	inner domsvc.ProfileSource
	cache pkgcache.Service
	ttl   time.Duration
}

func NewCachedSource(inner domsvc.ProfileSource, cache pkgcache.Service, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{inner: inner, cache: cache, ttl: ttl}
}

// Profiles round-trips the list as a JSON string: every cache backend treats
// string values verbatim, so the same entry works in memory, Redis and layered
// setups.
func (s *CachedSource) Profiles(ctx context.Context) ([]models.ReferenceProfile, error) {
	var raw string
	if err := s.cache.Get(ctx, profilesCacheKey, &raw); err == nil && raw != "" {
		var cached []models.ReferenceProfile
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	ps, err := s.inner.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		// best-effort, a miss next time just refetches
		if b, err := json.Marshal(ps); err == nil {
			_ = s.cache.Set(ctx, profilesCacheKey, string(b), s.ttl)
		}
	}
	return ps, nil
}

func (s *CachedSource) Vector(ctx context.Context, name string) (models.StyleVector, error) {
	ps, err := s.Profiles(ctx)
	if err != nil {
		return models.StyleVector{}, err
	}
	for _, p := range ps {
		if p.Name == name {
			return p.Vector, nil
		}
	}
	return models.StyleVector{}, fmt.Errorf("unknown reference profile %q", name)
}
