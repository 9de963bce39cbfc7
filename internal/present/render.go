package present

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/i474232898/alfred-weather/internal/settings"
	"github.com/i474232898/alfred-weather/internal/weather"
)

// Line is the title of the attribution entry.
var Line = strings.Repeat("─", 20)

const (
	sunIcon       = "clear"
	sunTimeFormat = "%H:%M"
)

// Renderer turns a snapshot into launcher items for one location.
type Renderer struct {
	Settings *settings.Settings
	Location weather.Location
	Provider weather.Provider
	Clock    *weather.Clock
	Icons    *Icons
}

func (r *Renderer) icon(name string) string {
	return r.Icons.Resolve(r.Settings.Icons, name)
}

func (r *Renderer) format(t time.Time) string {
	return FormatTime(r.Settings.TimeFormat, t)
}

func (r *Renderer) days(snap weather.Snapshot) []weather.Day {
	days := snap.Forecast
	if len(days) > r.Settings.Days {
		days = days[:r.Settings.Days]
	}
	return days
}

// Weather renders alerts, current conditions, up to Settings.Days forecast
// days and the attribution entry, in that order.
func (r *Renderer) Weather(snap weather.Snapshot) []Item {
	items := r.alerts(snap)
	items = append(items, r.current(snap))

	unit := r.Settings.Units.TemperatureSymbol()
	coords := r.Location.Coordinates()
	for _, day := range r.days(snap) {
		subtitle := fmt.Sprintf("High: %d°%s,  Low: %d°%s", day.High, unit, day.Low, unit)
		if day.Precip != nil {
			subtitle += fmt.Sprintf(",  Precip: %d%%", *day.Precip)
		}
		items = append(items, Item{
			Title:    fmt.Sprintf("%s: %s", r.Clock.DayLabel(day.Date, day.Sunset), Capitalize(day.Description)),
			Subtitle: subtitle,
			Icon:     r.icon(day.Icon),
			Arg:      r.Provider.ForecastURL(coords, day.Date),
			Valid:    true,
		})
	}

	return append(items, r.attribution(snap))
}

// Sun renders sunrise and sunset times for each forecast day, framed by the
// alerts and the attribution entry.
func (r *Renderer) Sun(snap weather.Snapshot) []Item {
	items := r.alerts(snap)

	for _, day := range r.days(snap) {
		var parts []string
		if day.Sunrise != nil {
			parts = append(parts, "Sunrise: "+FormatTime(sunTimeFormat, r.Clock.ToRemote(*day.Sunrise)))
		}
		if day.Sunset != nil {
			parts = append(parts, "Sunset: "+FormatTime(sunTimeFormat, r.Clock.ToRemote(*day.Sunset)))
		}
		if len(parts) == 0 {
			continue
		}
		items = append(items, Item{
			Title: fmt.Sprintf("%s: %s", r.Clock.DayLabel(day.Date, nil), strings.Join(parts, ", ")),
			Icon:  r.icon(sunIcon),
		})
	}

	return append(items, r.attribution(snap))
}

func (r *Renderer) alerts(snap weather.Snapshot) []Item {
	items := make([]Item, 0, len(snap.Alerts))
	for _, a := range snap.Alerts {
		item := Item{Title: a.Description, Icon: ErrorIcon}
		if a.Expires != nil {
			item.Subtitle = "Expires at " + r.format(r.Clock.ToLocal(*a.Expires))
		}
		if a.URI != "" {
			item.Arg = a.URI
			item.Valid = true
		}
		items = append(items, item)
	}
	return items
}

func (r *Renderer) current(snap weather.Snapshot) Item {
	cur := snap.Current
	temp := fmt.Sprintf("%d°%s", int(math.Round(cur.Temperature)), r.Settings.Units.TemperatureSymbol())
	if r.Settings.FeelsLike {
		temp = "Feels like " + temp
	}

	return Item{
		Title: fmt.Sprintf("Currently in %s: %s", r.Location.ShortName, Capitalize(cur.Description)),
		Subtitle: fmt.Sprintf("%s,  %d%% humidity,  %s local time",
			temp, int(math.Round(cur.Humidity)), r.format(r.Clock.RemoteNow())),
		Icon: r.icon(cur.Icon),
	}
}

func (r *Renderer) attribution(snap weather.Snapshot) Item {
	return Item{
		Title:    Line,
		Subtitle: fmt.Sprintf("Fetched from %s at %s", r.Provider.Title(), r.format(r.Clock.ToLocal(snap.Info.FetchedAt))),
		Icon:     "",
		Arg:      r.Provider.URL(),
		Valid:    true,
	}
}
