package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/settings"
	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/i474232898/alfred-weather/internal/weather/providers"
)

func (d *Dispatcher) doUnits(ctx context.Context, query string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var units weather.Units
	switch q {
	case "us":
		units = weather.UnitsUS
	case "si", "metric":
		units = weather.UnitsSI
	default:
		return "", fmt.Errorf("invalid units %q", query)
	}

	if _, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.Units = units
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using %s units", units), nil
}

func (d *Dispatcher) doDays(ctx context.Context, query string) (string, error) {
	n, err := parseDays(query)
	if err != nil {
		return "", err
	}

	if _, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.Days = n
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Now showing %s of forecast", present.Plural(n, "day")), nil
}

func (d *Dispatcher) doService(ctx context.Context, query string) (string, error) {
	id := weather.ServiceID(strings.ToLower(strings.TrimSpace(query)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown weather service %q", query)
	}
	p, err := providers.Describe(id)
	if err != nil {
		return "", err
	}

	cfg, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.Service = id
		return nil
	})
	if err != nil {
		return "", err
	}

	if key := cfg.Key(id); key != "" {
		return fmt.Sprintf("Using %s for weather data with key %s", p.Title(), key), nil
	}
	return fmt.Sprintf("Using %s for weather data; set a key with \"wset key\"", p.Title()), nil
}

// doKey stores an API key. The query is either "KEY" for the selected
// service or "SERVICE KEY".
func (d *Dispatcher) doKey(ctx context.Context, query string) (string, error) {
	fields := strings.Fields(query)
	var id weather.ServiceID
	var key string
	switch len(fields) {
	case 1:
		key = fields[0]
	case 2:
		id, key = weather.ServiceID(strings.ToLower(fields[0])), fields[1]
		if !id.Valid() {
			return "", fmt.Errorf("unknown weather service %q", fields[0])
		}
	default:
		return "", errors.New("expected an API key")
	}

	cfg, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		if id == "" {
			id = s.Service
		}
		if id == "" {
			return &weather.SetupError{
				Title:    "You need to set your weather service",
				Subtitle: `Use the "wset service" command.`,
			}
		}
		return s.SetKey(id, key)
	})
	if err != nil {
		return "", err
	}

	p, err := providers.Describe(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Using key %s for %s", cfg.Key(id), p.Title()), nil
}

func (d *Dispatcher) doIcons(ctx context.Context, query string) (string, error) {
	set := strings.TrimSpace(query)
	if !d.env.Icons.Has(set) {
		return "", fmt.Errorf("unknown icon set %q", set)
	}

	if _, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.Icons = set
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using %s icons", set), nil
}

func (d *Dispatcher) doTimeFormat(ctx context.Context, query string) (string, error) {
	pattern := strings.TrimSpace(query)
	if pattern == "" {
		return "", errors.New("expected a time format")
	}

	if _, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.TimeFormat = pattern
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Showing times as %s", present.FormatTime(pattern, d.env.Now())), nil
}

var numberedPlace = regexp.MustCompile(`^\d+ - .*`)

// shortName shortens an autocomplete result such as "19103 - Philadelphia,
// PA" to "Philadelphia".
func shortName(name string) string {
	short := name
	if numberedPlace.MatchString(name) {
		_, short, _ = strings.Cut(name, " - ")
	}
	if before, _, ok := strings.Cut(short, ","); ok {
		short = before
	}
	return strings.TrimSpace(short)
}

func (d *Dispatcher) doLocation(ctx context.Context, query string) (string, error) {
	name := strings.TrimSpace(query)
	if name == "" {
		return "", errors.New("expected a location")
	}

	loc, err := d.env.Locator.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	loc.Name = name
	loc.ShortName = shortName(name)

	if _, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		s.Location = &loc
		return nil
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using location %s", name), nil
}

func (d *Dispatcher) doFeelsLike(ctx context.Context, query string) (string, error) {
	cfg, err := d.env.Settings.Update(ctx, func(s *settings.Settings) error {
		switch strings.ToLower(strings.TrimSpace(query)) {
		case "":
			s.FeelsLike = !s.FeelsLike
		case "on", "yes", "true", "1":
			s.FeelsLike = true
		case "off", "no", "false", "0":
			s.FeelsLike = false
		default:
			return fmt.Errorf("invalid feels-like setting %q", query)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if cfg.FeelsLike {
		return "Showing feels-like temperatures", nil
	}
	return "Showing actual temperatures", nil
}
