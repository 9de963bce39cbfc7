package weather

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Service resolves a snapshot for a location, reusing a cached provider
// response while it is fresh.
type Service struct {
	cache Cache
	now   func() time.Time
}

// NewService creates a new Service.
func NewService(cache Cache) *Service {
	return &Service{
		cache: cache,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for cache freshness and stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Snapshot returns normalized weather for loc from provider p. A fresh
// cached response is used without an upstream call; otherwise the provider
// is queried and the response cached.
func (s *Service) Snapshot(ctx context.Context, p Provider, loc Location, opts Options) (Snapshot, error) {
	coords := loc.Coordinates()
	key := coords.Key()
	service := string(p.Name())

	raw, fetchedAt, err := s.load(ctx, p, service, key, coords, opts)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := p.Normalize(raw, opts)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Info.FetchedAt = fetchedAt
	return snap, nil
}

// Refresh forces an upstream fetch for loc and stores the response.
func (s *Service) Refresh(ctx context.Context, p Provider, loc Location, opts Options) error {
	coords := loc.Coordinates()
	_, _, err := s.fetchAndStore(ctx, p, string(p.Name()), coords.Key(), coords, opts)
	return err
}

func (s *Service) load(ctx context.Context, p Provider, service, key string, coords Coordinates, opts Options) (json.RawMessage, time.Time, error) {
	if raw, at, ok := s.cache.Fresh(service, key, s.now()); ok {
		if ua, isUA := p.(UnitAware); !isUA || ua.MatchesUnits(raw, opts.Units) {
			log.Printf("DEBUG: using cached %s response for %s", service, key)
			return raw, at, nil
		}
	}

	return s.fetchAndStore(ctx, p, service, key, coords, opts)
}

func (s *Service) fetchAndStore(ctx context.Context, p Provider, service, key string, coords Coordinates, opts Options) (json.RawMessage, time.Time, error) {
	log.Printf("DEBUG: fetching %s weather for %s", service, key)
	raw, err := p.Fetch(ctx, coords, opts)
	if err != nil {
		return nil, time.Time{}, err
	}

	now := s.now()
	if err := s.cache.Put(service, key, raw, now); err != nil {
		// The response is still usable for this invocation.
		log.Printf("ERROR: failed to update cache for %s: %v", key, err)
	}
	return raw, now, nil
}
