package weather

import (
	"context"
	"encoding/json"
	"time"
)

// Provider abstracts an upstream weather service (Weather Underground,
// Forecast.io).
type Provider interface {
	Name() ServiceID
	// Title is the human readable service name used in attributions.
	Title() string
	// URL is the service home page used as the attribution link.
	URL() string
	// KeyURL is where users register for an API key.
	KeyURL() string
	// Icons translates the provider's icon codes into the icon vocabulary of
	// the bundled icon sets. Codes missing from the table are used as-is.
	Icons() map[string]string
	// ForecastURL links to the provider's page for one forecast day.
	ForecastURL(coords Coordinates, date time.Time) string

	Fetch(ctx context.Context, coords Coordinates, opts Options) (json.RawMessage, error)
	Normalize(raw json.RawMessage, opts Options) (Snapshot, error)
}

// UnitAware is implemented by providers whose raw responses are unit
// specific, so a cached response in other units cannot be reused.
type UnitAware interface {
	MatchesUnits(raw json.RawMessage, units Units) bool
}

// Cache is the contract the response cache must satisfy.
type Cache interface {
	Fresh(provider, key string, now time.Time) (json.RawMessage, time.Time, bool)
	Put(provider, key string, raw json.RawMessage, now time.Time) error
}

// TranslateIcon maps code through the provider's icon table.
func TranslateIcon(p Provider, code string) string {
	if v, ok := p.Icons()[code]; ok {
		return v
	}
	return code
}
