package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/i474232898/alfred-weather/internal/common"
	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/settings"
	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/i474232898/alfred-weather/internal/weather/providers"
)

// forecast loads settings, resolves the location (query overrides the
// configured one for this invocation only) and returns a renderer and
// snapshot for it.
func (d *Dispatcher) forecast(ctx context.Context, query string) (*present.Renderer, weather.Snapshot, error) {
	cfg, err := d.env.Settings.Load(ctx, false)
	if err != nil {
		return nil, weather.Snapshot{}, err
	}

	if q := strings.TrimSpace(query); q != "" {
		loc, err := d.env.Locator.Lookup(ctx, q)
		if err != nil {
			return nil, weather.Snapshot{}, err
		}
		cfg.Location = &loc
	}
	if err := cfg.CheckSetup(); err != nil {
		return nil, weather.Snapshot{}, err
	}

	p, err := d.env.Providers(cfg.Service, cfg.Key(cfg.Service))
	if err != nil {
		return nil, weather.Snapshot{}, err
	}

	clock, err := weather.NewClock(cfg.Location.Timezone)
	if err != nil {
		return nil, weather.Snapshot{}, err
	}
	clock.Now = d.env.Now

	snap, err := d.env.Weather.Snapshot(ctx, p, *cfg.Location, cfg.Options(clock))
	if err != nil {
		return nil, weather.Snapshot{}, err
	}

	r := &present.Renderer{
		Settings: cfg,
		Location: *cfg.Location,
		Provider: p,
		Clock:    clock,
		Icons:    d.env.Icons,
	}
	return r, snap, nil
}

func (d *Dispatcher) tellWeather(ctx context.Context, query string) ([]present.Item, error) {
	r, snap, err := d.forecast(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.Weather(snap), nil
}

func (d *Dispatcher) tellSun(ctx context.Context, query string) ([]present.Item, error) {
	r, snap, err := d.forecast(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.Sun(snap), nil
}

func (d *Dispatcher) tellUnits(_ context.Context, query string) ([]present.Item, error) {
	us := present.Item{Title: "US", Subtitle: "US units (°F, in, mph)", Arg: string(weather.UnitsUS), Icon: present.DefaultIcon, Valid: true}
	si := present.Item{Title: "SI", Subtitle: "SI units (°C, cm, kph)", Arg: string(weather.UnitsSI), Icon: present.DefaultIcon, Valid: true}

	q := strings.TrimSpace(query)
	switch {
	case q == "":
		return []present.Item{us, si}, nil
	case common.PrefixOfAny(q, "us"):
		return []present.Item{us}, nil
	case common.PrefixOfAny(q, "metric", "si"):
		return []present.Item{si}, nil
	default:
		return []present.Item{present.NewItem("Invalid units", "")}, nil
	}
}

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", strings.TrimSpace(s))
	}
	if n < 0 || n > settings.MaxDays {
		return 0, fmt.Errorf("Value must be between 0 and %d", settings.MaxDays)
	}
	return n, nil
}

func (d *Dispatcher) tellDays(ctx context.Context, query string) ([]present.Item, error) {
	if strings.TrimSpace(query) == "" {
		cfg, err := d.env.Settings.Load(ctx, false)
		if err != nil {
			return nil, err
		}
		return []present.Item{present.NewItem(
			fmt.Sprintf("Currently showing %s of forecast", present.Plural(cfg.Days, "day")),
			"Enter a new value to change",
		)}, nil
	}

	n, err := parseDays(query)
	if err != nil {
		return nil, err
	}
	item := present.NewItem(fmt.Sprintf("Show %s of forecast", present.Plural(n, "day")), "")
	item.Arg = strconv.Itoa(n)
	item.Valid = true
	return []present.Item{item}, nil
}

func (d *Dispatcher) tellService(_ context.Context, query string) ([]present.Item, error) {
	var items []present.Item
	for _, id := range weather.Services {
		p, err := providers.Describe(id)
		if err != nil {
			return nil, err
		}
		if !common.Matches(p.Title(), query) {
			continue
		}
		items = append(items, present.Item{UID: string(id), Title: p.Title(), Arg: string(id), Icon: present.DefaultIcon, Valid: true})
	}
	return items, nil
}

// tellKey links to each service's key registration page. A query that
// names no service is offered as the key for the selected service.
func (d *Dispatcher) tellKey(ctx context.Context, query string) ([]present.Item, error) {
	var items []present.Item
	for _, id := range weather.Services {
		p, err := providers.Describe(id)
		if err != nil {
			return nil, err
		}
		if !common.Matches(p.Title(), query) {
			continue
		}
		items = append(items, present.Item{
			UID:      string(id),
			Title:    p.Title(),
			Subtitle: "Get an API key",
			Arg:      p.KeyURL(),
			Icon:     present.DefaultIcon,
			Valid:    true,
		})
	}

	key := strings.TrimSpace(query)
	if len(items) > 0 || key == "" {
		return items, nil
	}

	cfg, err := d.env.Settings.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	if cfg.Service == "" {
		return nil, &weather.SetupError{
			Title:    "You need to set your weather service",
			Subtitle: `Use the "wset service" command.`,
		}
	}
	p, err := providers.Describe(cfg.Service)
	if err != nil {
		return nil, err
	}
	item := present.NewItem(fmt.Sprintf("Use %s as your %s key", key, p.Title()), "")
	item.Arg = key
	item.Valid = true
	return []present.Item{item}, nil
}

func (d *Dispatcher) tellIcons(_ context.Context, _ string) ([]present.Item, error) {
	sets, err := d.env.Icons.Sets()
	if err != nil {
		return nil, err
	}

	items := make([]present.Item, 0, len(sets))
	for _, set := range sets {
		items = append(items, present.Item{
			UID:      "icons-" + set.Name,
			Title:    present.Capitalize(set.Name),
			Subtitle: set.Description,
			Icon:     set.Example,
			Arg:      set.Name,
			Valid:    true,
		})
	}
	return items, nil
}

func (d *Dispatcher) tellTimeFormat(_ context.Context, _ string) ([]present.Item, error) {
	now := d.env.Now()
	items := make([]present.Item, 0, len(present.TimeFormats))
	for _, f := range present.TimeFormats {
		item := present.NewItem(present.FormatTime(f, now), "")
		item.Arg = f
		item.Valid = true
		items = append(items, item)
	}
	return items, nil
}

func (d *Dispatcher) tellLocation(ctx context.Context, query string) ([]present.Item, error) {
	q := strings.TrimSpace(query)
	if q == "" || d.env.Autocomplete == nil {
		return nil, nil
	}

	names, err := d.env.Autocomplete(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]present.Item, 0, len(names))
	for _, name := range names {
		item := present.NewItem(name, "")
		item.Arg = name
		item.Valid = true
		items = append(items, item)
	}
	return items, nil
}

func (d *Dispatcher) tellFeelsLike(ctx context.Context, _ string) ([]present.Item, error) {
	cfg, err := d.env.Settings.Load(ctx, false)
	if err != nil {
		return nil, err
	}

	on := present.Item{Title: "Show feels-like temperatures", Arg: "on", Icon: present.DefaultIcon, Valid: true}
	off := present.Item{Title: "Show actual temperatures", Arg: "off", Icon: present.DefaultIcon, Valid: true}
	if cfg.FeelsLike {
		on.Subtitle = "Current setting"
	} else {
		off.Subtitle = "Current setting"
	}
	return []present.Item{on, off}, nil
}
