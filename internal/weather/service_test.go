package weather

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type cacheEntry struct {
	raw json.RawMessage
	at  time.Time
}

type memCache struct {
	entries map[string]cacheEntry
	putErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]cacheEntry)}
}

func (m *memCache) Fresh(provider, key string, now time.Time) (json.RawMessage, time.Time, bool) {
	e, ok := m.entries[provider+"|"+key]
	if !ok || now.Sub(e.at) >= 300*time.Second {
		return nil, time.Time{}, false
	}
	return e.raw, e.at, true
}

func (m *memCache) Put(provider, key string, raw json.RawMessage, now time.Time) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[provider+"|"+key] = cacheEntry{raw: raw, at: now}
	return nil
}

type fakeProvider struct {
	fetches int
	units   Units
	err     error
}

func (p *fakeProvider) Name() ServiceID          { return ServiceFio }
func (p *fakeProvider) Title() string            { return "Fake" }
func (p *fakeProvider) URL() string              { return "https://example.com" }
func (p *fakeProvider) KeyURL() string           { return "https://example.com/key" }
func (p *fakeProvider) Icons() map[string]string { return map[string]string{"clear-day": "clear"} }

func (p *fakeProvider) ForecastURL(Coordinates, time.Time) string { return "" }

func (p *fakeProvider) Fetch(_ context.Context, _ Coordinates, opts Options) (json.RawMessage, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.fetches++
	return json.RawMessage(`{"units":"` + string(opts.Units) + `"}`), nil
}

func (p *fakeProvider) Normalize(raw json.RawMessage, _ Options) (Snapshot, error) {
	var body struct {
		Units Units `json:"units"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Snapshot{}, err
	}
	p.units = body.Units
	return Snapshot{Current: Current{Description: "Clear"}}, nil
}

func (p *fakeProvider) MatchesUnits(raw json.RawMessage, units Units) bool {
	var body struct {
		Units Units `json:"units"`
	}
	return json.Unmarshal(raw, &body) == nil && body.Units == units
}

var testLoc = Location{Name: "New York", Latitude: 40.7, Longitude: -74}

func TestSnapshotUsesFreshCache(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	p := &fakeProvider{}
	s := NewService(newMemCache()).WithClock(func() time.Time { return now })
	opts := Options{Units: UnitsUS}

	snap, err := s.Snapshot(context.Background(), p, testLoc, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Info.FetchedAt.Equal(now) {
		t.Fatalf("expected fetch time %v, got %v", now, snap.Info.FetchedAt)
	}

	now = now.Add(299 * time.Second)
	snap, err = s.Snapshot(context.Background(), p, testLoc, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.fetches != 1 {
		t.Fatalf("expected cached response, got %d fetches", p.fetches)
	}
	if !snap.Info.FetchedAt.Equal(now.Add(-299 * time.Second)) {
		t.Fatalf("expected original fetch time, got %v", snap.Info.FetchedAt)
	}

	now = now.Add(2 * time.Second)
	if _, err := s.Snapshot(context.Background(), p, testLoc, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.fetches != 2 {
		t.Fatalf("expected stale response to be refetched, got %d fetches", p.fetches)
	}
}

func TestSnapshotRefetchesOnUnitChange(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	p := &fakeProvider{}
	s := NewService(newMemCache()).WithClock(func() time.Time { return now })

	if _, err := s.Snapshot(context.Background(), p, testLoc, Options{Units: UnitsUS}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Snapshot(context.Background(), p, testLoc, Options{Units: UnitsSI}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.fetches != 2 || p.units != UnitsSI {
		t.Fatalf("expected refetch in si units, got %d fetches in %q", p.fetches, p.units)
	}
}

func TestSnapshotSurvivesCacheWriteFailure(t *testing.T) {
	cache := newMemCache()
	cache.putErr = errors.New("disk full")
	p := &fakeProvider{}

	snap, err := NewService(cache).Snapshot(context.Background(), p, testLoc, Options{Units: UnitsUS})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.Description != "Clear" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSnapshotPropagatesFetchError(t *testing.T) {
	want := &UpstreamError{Service: "fio", Description: "invalid key"}
	p := &fakeProvider{err: want}

	_, err := NewService(newMemCache()).Snapshot(context.Background(), p, testLoc, Options{Units: UnitsUS})
	var got *UpstreamError
	if !errors.As(err, &got) || got != want {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	cache := newMemCache()
	p := &fakeProvider{}
	s := NewService(cache).WithClock(func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if err := s.Refresh(context.Background(), p, testLoc, Options{Units: UnitsUS}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.fetches != 2 {
		t.Fatalf("expected every refresh to fetch, got %d", p.fetches)
	}
	if _, _, ok := cache.Fresh("fio", testLoc.Coordinates().Key(), now); !ok {
		t.Fatalf("expected refreshed response in cache")
	}
}

func TestTranslateIcon(t *testing.T) {
	p := &fakeProvider{}
	if got := TranslateIcon(p, "clear-day"); got != "clear" {
		t.Fatalf("expected clear, got %q", got)
	}
	if got := TranslateIcon(p, "fog"); got != "fog" {
		t.Fatalf("expected unknown code passthrough, got %q", got)
	}
}

func TestCoordinatesKey(t *testing.T) {
	if got := (Coordinates{Latitude: 40.7, Longitude: -74}).Key(); got != "40.7,-74" {
		t.Fatalf("unexpected key %q", got)
	}
}
