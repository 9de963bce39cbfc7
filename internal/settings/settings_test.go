package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/i474232898/alfred-weather/internal/weather"
)

type fakeLocator struct {
	lookups   int
	timezones int
}

func (f *fakeLocator) Lookup(_ context.Context, query string) (weather.Location, error) {
	f.lookups++
	if query == "Atlantis" {
		return weather.Location{}, &weather.UpstreamError{Service: "google", Description: `Could not find "Atlantis"`}
	}
	return weather.Location{
		Name:      query,
		ShortName: "Philadelphia",
		Latitude:  40,
		Longitude: -75,
		Timezone:  "America/New_York",
	}, nil
}

func (f *fakeLocator) TimeZone(_ context.Context, _ weather.Coordinates) (string, error) {
	f.timezones++
	return "Europe/Oslo", nil
}

func writeSettings(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), FileName), nil)

	cfg, err := st.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(st.Path()); !os.IsNotExist(err) {
		t.Fatalf("loading defaults should not create a file")
	}
}

func TestLoadMigratesLegacySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeSettings(t, path, `{"units":"US","key":"abc","name":"Philadelphia, PA","days":5}`)

	loc := &fakeLocator{}
	st := NewStore(path, loc)

	cfg, err := st.Load(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, cfg.Version)
	}
	if cfg.Units != weather.UnitsUS || cfg.KeyWund != "abc" || cfg.Service != weather.ServiceWund {
		t.Fatalf("unexpected migrated settings %+v", cfg)
	}
	if cfg.LegacyKey != "" || cfg.LegacyName != "" {
		t.Fatalf("legacy fields should be cleared")
	}
	if cfg.Location == nil || cfg.Location.ShortName != "Philadelphia" || cfg.Location.Timezone != "America/New_York" {
		t.Fatalf("unexpected location %+v", cfg.Location)
	}
	if cfg.Days != 5 || cfg.Icons != DefaultIcons {
		t.Fatalf("expected stored and default fields to merge, got %+v", cfg)
	}

	// The migrated file is persisted and not migrated again.
	var onDisk map[string]any
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("decode saved settings: %v", err)
	}
	if onDisk["version"] != float64(CurrentVersion) {
		t.Fatalf("expected version persisted, got %v", onDisk["version"])
	}
	if _, ok := onDisk["key"]; ok {
		t.Fatalf("legacy key should not be written back")
	}

	if _, err := st.Load(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.lookups != 1 {
		t.Fatalf("expected a single geocode, got %d", loc.lookups)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	loc := &fakeLocator{}
	legacy := &Settings{
		Units:      "metric",
		LegacyKey:  "k",
		Location:   &weather.Location{Name: "Oslo", ShortName: "Oslo", Latitude: 59.9, Longitude: 10.7},
		Icons:      DefaultIcons,
		TimeFormat: DefaultTimeFormat,
	}

	if err := Migrate(context.Background(), legacy, loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	once := *legacy
	onceLoc := *legacy.Location

	if err := Migrate(context.Background(), legacy, loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if legacy.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, legacy.Version)
	}
	if legacy.Units != weather.UnitsSI {
		t.Fatalf("expected si units, got %q", legacy.Units)
	}
	if legacy.Location.Timezone != "Europe/Oslo" {
		t.Fatalf("expected time zone backfill, got %q", legacy.Location.Timezone)
	}
	once.Location = legacy.Location
	if !reflect.DeepEqual(&once, legacy) || onceLoc != *legacy.Location {
		t.Fatalf("second migration changed settings: %+v", legacy)
	}
	if loc.timezones != 1 {
		t.Fatalf("expected one time zone lookup, got %d", loc.timezones)
	}
}

func TestMigrateFailureKeepsFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := `{"units":"US","name":"Atlantis"}`
	writeSettings(t, path, body)

	_, err := NewStore(path, &fakeLocator{}).Load(context.Background(), false)
	var ue *weather.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != body {
		t.Fatalf("settings file should not change on failed migration")
	}
}

func TestLoadReportsMissingSetup(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"service", `{"version":4}`, "You need to set your weather service"},
		{"key", `{"version":4,"service":"fio"}`, "Missing API key for Forecast.io"},
		{"location", `{"version":4,"service":"wund","key.wund":"k"}`, "Missing default location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeSettings(t, path, tt.body)

			_, err := NewStore(path, nil).Load(context.Background(), true)
			var se *weather.SetupError
			if !errors.As(err, &se) {
				t.Fatalf("expected SetupError, got %v", err)
			}
			if se.Title != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, se.Title)
			}
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeSettings(t, path, `{"version":4,"days":11}`)

	if _, err := NewStore(path, nil).Load(context.Background(), false); err == nil {
		t.Fatalf("expected validation error for days=11")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", FileName)
	st := NewStore(path, nil)

	cfg := Defaults()
	cfg.Service = weather.ServiceFio
	if err := cfg.SetKey(weather.ServiceFio, "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Save(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := st.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Key(weather.ServiceFio) != "secret" || got.Service != weather.ServiceFio {
		t.Fatalf("unexpected round trip %+v", got)
	}
}

func TestUpdateMutatesOneField(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeSettings(t, path, `{"version":4,"service":"wund","key.wund":"k","days":2}`)
	st := NewStore(path, nil)

	cfg, err := st.Update(context.Background(), func(s *Settings) error {
		s.Units = weather.UnitsSI
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Units != weather.UnitsSI || cfg.Days != 2 || cfg.KeyWund != "k" {
		t.Fatalf("unexpected settings after update %+v", cfg)
	}

	if _, err := st.Update(context.Background(), func(s *Settings) error {
		s.Days = 42
		return nil
	}); err == nil {
		t.Fatalf("expected validation error")
	}
	reloaded, _ := st.Load(context.Background(), false)
	if reloaded.Days != 2 {
		t.Fatalf("invalid update should not be saved, got days=%d", reloaded.Days)
	}
}

func TestUpdateResetsInvalidStoredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeSettings(t, path, `{"version":4,"days":15,"units":"kelvin","service":"wund","key.wund":"k"}`)
	st := NewStore(path, nil)

	// A hand-edited file is reported on read.
	if _, err := st.Load(context.Background(), false); err == nil {
		t.Fatalf("expected validation error for days=15")
	}

	cfg, err := st.Update(context.Background(), func(s *Settings) error {
		s.Days = 3
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Days != 3 || cfg.Units != DefaultUnits || cfg.KeyWund != "k" {
		t.Fatalf("unexpected settings after update %+v", cfg)
	}

	reloaded, err := st.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("repaired file should load, got %v", err)
	}
	if reloaded.Days != 3 || reloaded.Units != DefaultUnits {
		t.Fatalf("unexpected reloaded settings %+v", reloaded)
	}
}

func TestUpdateContinuesAfterFailedMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeSettings(t, path, `{"units":"US","key":"abc","name":"Atlantis"}`)
	loc := &fakeLocator{}
	st := NewStore(path, loc)

	if _, err := st.Load(context.Background(), false); err == nil {
		t.Fatalf("expected the legacy name to fail geocoding")
	}

	oslo := weather.Location{Name: "Oslo", ShortName: "Oslo", Latitude: 59.9, Longitude: 10.7, Timezone: "Europe/Oslo"}
	if _, err := st.Update(context.Background(), func(s *Settings) error {
		s.Location = &oslo
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := st.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != CurrentVersion || cfg.LegacyName != "" {
		t.Fatalf("expected the migration to finish, got %+v", cfg)
	}
	if cfg.Location == nil || *cfg.Location != oslo || cfg.KeyWund != "abc" {
		t.Fatalf("unexpected settings %+v", cfg)
	}
	if loc.timezones != 0 {
		t.Fatalf("location with a time zone should not be looked up again")
	}
}
