package command

import (
	"context"

	"github.com/i474232898/alfred-weather/internal/weather"
)

// Refresh fetches weather for the configured location and stores it in the
// cache regardless of freshness.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	cfg, err := d.env.Settings.Load(ctx, true)
	if err != nil {
		return err
	}

	p, err := d.env.Providers(cfg.Service, cfg.Key(cfg.Service))
	if err != nil {
		return err
	}
	clock, err := weather.NewClock(cfg.Location.Timezone)
	if err != nil {
		return err
	}
	return d.env.Weather.Refresh(ctx, p, *cfg.Location, cfg.Options(clock))
}
