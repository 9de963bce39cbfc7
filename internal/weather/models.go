package weather

import (
	"strconv"
	"time"
)

// Units selects the measurement system requested from providers.
type Units string

const (
	UnitsUS Units = "us"
	UnitsSI Units = "si"
)

// TemperatureSymbol returns the letter shown after the degree sign.
func (u Units) TemperatureSymbol() string {
	if u == UnitsSI {
		return "C"
	}
	return "F"
}

// ServiceID identifies one of the supported upstream weather services.
type ServiceID string

const (
	ServiceWund ServiceID = "wund"
	ServiceFio  ServiceID = "fio"
)

// Services lists the supported services in display order.
var Services = []ServiceID{ServiceWund, ServiceFio}

// Valid reports whether id names a supported service.
func (id ServiceID) Valid() bool {
	for _, s := range Services {
		if s == id {
			return true
		}
	}
	return false
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns the "lat,lon" string used to index cached responses and
// to build provider URLs.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Location is a geocoded place as stored in settings.
type Location struct {
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Coordinates returns the location's coordinates.
func (l Location) Coordinates() Coordinates {
	return Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Options carries the user preferences a provider needs to fetch and
// normalize a response.
type Options struct {
	Units     Units
	FeelsLike bool
	// Zone is the configured location's time zone; dates and wall-clock
	// times in provider payloads are interpreted in it.
	Zone *time.Location
}

// Location returns Zone, defaulting to the process time zone.
func (o Options) Location() *time.Location {
	if o.Zone == nil {
		return time.Local
	}
	return o.Zone
}

// Current holds the current conditions.
type Current struct {
	Description string
	Icon        string
	Humidity    float64
	Temperature float64
}

// Day is one forecast day. Date is midnight at the configured location.
type Day struct {
	Date        time.Time
	Description string
	Icon        string
	High        int
	Low         int
	Precip      *int
	Sunrise     *time.Time
	Sunset      *time.Time
}

// Alert is an active weather alert.
type Alert struct {
	Description string
	Expires     *time.Time
	URI         string
}

// Info carries response metadata.
type Info struct {
	FetchedAt time.Time
	Sunrise   *time.Time
	Sunset    *time.Time
}

// Snapshot is the provider-agnostic view of a single provider response.
// Forecast entries are ordered by Date ascending.
type Snapshot struct {
	Current  Current
	Forecast []Day
	Alerts   []Alert
	Info     Info
}
