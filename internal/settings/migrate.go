package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/alfred-weather/internal/weather"
)

// Locator resolves place names and time zones.
type Locator interface {
	Lookup(ctx context.Context, query string) (weather.Location, error)
	TimeZone(ctx context.Context, coords weather.Coordinates) (string, error)
}

type migration struct {
	version int
	apply   func(ctx context.Context, s *Settings, loc Locator) error
}

var migrations = []migration{
	{1, normalizeUnits},
	{2, renameKey},
	{3, geocodeName},
	{4, backfillTimezone},
}

// Migrate upgrades s to CurrentVersion. Steps are applied in order and each
// bumps the version only on success, so a failed step is retried on the
// next load.
func Migrate(ctx context.Context, s *Settings, loc Locator) error {
	for _, m := range migrations {
		if s.Version >= m.version {
			continue
		}
		if err := m.apply(ctx, s, loc); err != nil {
			return fmt.Errorf("migrate settings to version %d: %w", m.version, err)
		}
		s.Version = m.version
	}
	return nil
}

func normalizeUnits(_ context.Context, s *Settings, _ Locator) error {
	if strings.EqualFold(string(s.Units), string(weather.UnitsUS)) {
		s.Units = weather.UnitsUS
	} else {
		s.Units = weather.UnitsSI
	}
	return nil
}

func renameKey(_ context.Context, s *Settings, _ Locator) error {
	if s.LegacyKey != "" {
		if s.KeyWund == "" {
			s.KeyWund = s.LegacyKey
		}
		s.LegacyKey = ""
	}
	if s.Service == "" {
		s.Service = weather.ServiceWund
	}
	return nil
}

func geocodeName(ctx context.Context, s *Settings, loc Locator) error {
	if s.LegacyName == "" {
		return nil
	}
	// A location set since the file was written wins over the legacy name.
	if s.Location != nil {
		s.LegacyName = ""
		return nil
	}
	if loc == nil {
		return fmt.Errorf("no geocoder configured for %q", s.LegacyName)
	}

	found, err := loc.Lookup(ctx, s.LegacyName)
	if err != nil {
		return err
	}
	s.Location = &found
	s.LegacyName = ""
	return nil
}

func backfillTimezone(ctx context.Context, s *Settings, loc Locator) error {
	if s.Location == nil || s.Location.Timezone != "" {
		return nil
	}
	if loc == nil {
		return fmt.Errorf("no geocoder configured for time zone lookup")
	}

	tz, err := loc.TimeZone(ctx, s.Location.Coordinates())
	if err != nil {
		return err
	}
	s.Location.Timezone = tz
	return nil
}
