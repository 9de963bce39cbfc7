package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/alfred-weather/internal/weather"
)

const (
	wundSite         = "http://www.wunderground.com"
	wundAPI          = "http://api.wunderground.com/api"
	wundForecastURL  = wundSite + "/cgi-bin/findweather/getForecast"
	wundAutocomplete = "http://autocomplete.wunderground.com/aq"
)

// WundergroundProvider implements the weather.Provider interface for Weather Underground.
type WundergroundProvider struct {
	base
	autocompleteURL string
}

func NewWundergroundProvider(client *http.Client, apiKey string, opts ...Option) *WundergroundProvider {
	ac := buildOptions(wundAPI, opts).autocompleteURL
	if ac == "" {
		ac = wundAutocomplete
	}
	return &WundergroundProvider{
		base:            newBase("wunderground", wundAPI, client, apiKey, opts),
		autocompleteURL: ac,
	}
}

func (p *WundergroundProvider) Name() weather.ServiceID { return weather.ServiceWund }
func (p *WundergroundProvider) Title() string           { return "Weather Underground" }
func (p *WundergroundProvider) URL() string             { return wundSite }
func (p *WundergroundProvider) KeyURL() string          { return wundSite + "/weather/api/" }

// Icons is empty: Weather Underground codes are the bundled icon vocabulary.
func (p *WundergroundProvider) Icons() map[string]string { return nil }

func (p *WundergroundProvider) ForecastURL(coords weather.Coordinates, date time.Time) string {
	values := url.Values{}
	values.Set("query", coords.Key())
	u := wundForecastURL + "?" + values.Encode()
	if !date.IsZero() {
		u += fmt.Sprintf("&hourly=1&yday=%03d&weekday=%s", date.YearDay(), date.Weekday())
	}
	return u
}

// Fetch returns current conditions, alerts, astronomy and a 10-day forecast
// in a single call. Responses carry both unit systems.
func (p *WundergroundProvider) Fetch(ctx context.Context, coords weather.Coordinates, _ weather.Options) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("wunderground api key is not configured")
	}

	u := fmt.Sprintf("%s/%s/conditions/alerts/astronomy/forecast10day/q/%s.json",
		p.baseURL, url.PathEscape(p.apiKey), coords.Key())
	body, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}

	// Errors arrive with a 200 status inside the response envelope.
	var envelope struct {
		Response struct {
			Error *struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("wunderground: decode response: %w", err)
	}
	if e := envelope.Response.Error; e != nil {
		desc := e.Description
		if desc == "" {
			desc = "Your key is invalid or wunderground is down"
		}
		return nil, &weather.UpstreamError{Service: "wund", Description: desc, Detail: e.Type}
	}

	return json.RawMessage(body), nil
}

// Autocomplete returns city names matching query.
func (p *WundergroundProvider) Autocomplete(ctx context.Context, query string) ([]string, error) {
	values := url.Values{}
	values.Set("query", query)
	body, err := p.get(ctx, p.autocompleteURL+"?"+values.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"RESULTS"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("wunderground: decode autocomplete: %w", err)
	}

	var names []string
	for _, r := range payload.Results {
		if r.Type == "city" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

type wundPayload struct {
	CurrentObservation *struct {
		Weather          *string `json:"weather"`
		Icon             string  `json:"icon"`
		IconURL          string  `json:"icon_url"`
		RelativeHumidity number  `json:"relative_humidity"`
		TempF            number  `json:"temp_f"`
		TempC            number  `json:"temp_c"`
		FeelsLikeF       number  `json:"feelslike_f"`
		FeelsLikeC       number  `json:"feelslike_c"`
	} `json:"current_observation"`
	Alerts []struct {
		Description     string          `json:"description"`
		ExpiresEpoch    number          `json:"expires_epoch"`
		LevelMeteoalarm json.RawMessage `json:"level_meteoalarm"`
		Zones           []struct {
			State string `json:"state"`
			Zone  string `json:"ZONE"`
		} `json:"ZONES"`
	} `json:"alerts"`
	SunPhase *struct {
		Sunrise wundClock `json:"sunrise"`
		Sunset  wundClock `json:"sunset"`
	} `json:"sun_phase"`
	Forecast *struct {
		SimpleForecast struct {
			ForecastDay []struct {
				Date struct {
					Day   int `json:"day"`
					Month int `json:"month"`
					Year  int `json:"year"`
				} `json:"date"`
				Conditions string   `json:"conditions"`
				Pop        *number  `json:"pop"`
				Icon       string   `json:"icon"`
				High       wundTemp `json:"high"`
				Low        wundTemp `json:"low"`
			} `json:"forecastday"`
		} `json:"simpleforecast"`
	} `json:"forecast"`
}

type wundClock struct {
	Hour   number `json:"hour"`
	Minute number `json:"minute"`
}

type wundTemp struct {
	Fahrenheit number `json:"fahrenheit"`
	Celsius    number `json:"celsius"`
}

// in returns the temperature in units, or false when the upstream left it
// empty.
func (t wundTemp) in(units weather.Units) (int, bool) {
	n := t.Fahrenheit
	if units == weather.UnitsSI {
		n = t.Celsius
	}
	return n.Int(), n.Set
}

func (p *WundergroundProvider) Normalize(raw json.RawMessage, opts weather.Options) (weather.Snapshot, error) {
	var payload wundPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("wunderground: decode response: %w", err)
	}

	obs := payload.CurrentObservation
	if obs == nil {
		return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: "current_observation"}
	}
	if obs.Weather == nil {
		return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: "current_observation.weather"}
	}
	if payload.Forecast == nil {
		return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: "forecast"}
	}

	zone := opts.Location()

	var snap weather.Snapshot

	for _, a := range payload.Alerts {
		alert := weather.Alert{Description: a.Description}
		if a.ExpiresEpoch.Set {
			exp := time.Unix(int64(a.ExpiresEpoch.Value), 0)
			alert.Expires = &exp
		}
		// Only US alerts link to a zone page.
		if blank(a.LevelMeteoalarm) && len(a.Zones) > 0 {
			alert.URI = fmt.Sprintf("%s/US/%s/%s.html", wundSite, a.Zones[0].State, a.Zones[0].Zone)
		}
		snap.Alerts = append(snap.Alerts, alert)
	}

	if !obs.RelativeHumidity.Set {
		return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: "current_observation.relative_humidity"}
	}
	temp, field, ok := pickTemp(opts, obs.TempF, obs.TempC, obs.FeelsLikeF, obs.FeelsLikeC)
	if !ok {
		return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: "current_observation." + field}
	}
	snap.Current = weather.Current{
		Description: *obs.Weather,
		Icon:        wundIcon(obs.IconURL, obs.Icon),
		Humidity:    obs.RelativeHumidity.Value,
		Temperature: temp,
	}

	for i, d := range payload.Forecast.SimpleForecast.ForecastDay {
		high, ok := d.High.in(opts.Units)
		if !ok {
			return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: fmt.Sprintf("forecastday[%d].high", i)}
		}
		low, ok := d.Low.in(opts.Units)
		if !ok {
			return weather.Snapshot{}, &weather.ParseError{Service: "wund", Field: fmt.Sprintf("forecastday[%d].low", i)}
		}
		day := weather.Day{
			Date:        time.Date(d.Date.Year, time.Month(d.Date.Month), d.Date.Day, 0, 0, 0, 0, zone),
			Description: d.Conditions,
			Icon:        d.Icon,
			High:        high,
			Low:         low,
		}
		if d.Pop != nil && d.Pop.Set {
			day.Precip = intPtr(d.Pop.Int())
		}
		snap.Forecast = append(snap.Forecast, day)
	}
	sort.SliceStable(snap.Forecast, func(i, j int) bool {
		return snap.Forecast[i].Date.Before(snap.Forecast[j].Date)
	})

	// Astronomy covers the current day only, as wall-clock times at the station.
	if payload.SunPhase != nil && len(snap.Forecast) > 0 {
		first := &snap.Forecast[0]
		first.Sunrise = payload.SunPhase.Sunrise.on(first.Date)
		first.Sunset = payload.SunPhase.Sunset.on(first.Date)
		snap.Info.Sunrise = first.Sunrise
		snap.Info.Sunset = first.Sunset
	}

	return snap, nil
}

func (c wundClock) on(date time.Time) *time.Time {
	if !c.Hour.Set {
		return nil
	}
	t := time.Date(date.Year(), date.Month(), date.Day(), c.Hour.Int(), c.Minute.Int(), 0, 0, date.Location())
	return &t
}

// blank reports whether a raw JSON value is absent, null, false or "".
func blank(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", `""`:
		return true
	}
	return false
}

// wundIcon prefers the icon_url basename, which carries the nt_ night prefix.
func wundIcon(iconURL, icon string) string {
	if iconURL != "" {
		if u, err := url.Parse(iconURL); err == nil {
			name := path.Base(u.Path)
			name = strings.TrimSuffix(name, path.Ext(name))
			if name != "" && name != "." && name != "/" {
				return name
			}
		}
	}
	return icon
}

// pickTemp returns the current temperature for opts, falling back from the
// feels-like reading to the measured one. ok is false when the measured
// reading the units need is absent; field names it.
func pickTemp(opts weather.Options, f, c, feelsF, feelsC number) (temp float64, field string, ok bool) {
	measured, feels, field := f, feelsF, "temp_f"
	if opts.Units == weather.UnitsSI {
		measured, feels, field = c, feelsC, "temp_c"
	}
	if opts.FeelsLike && feels.Set {
		return feels.Value, "", true
	}
	return measured.Value, field, measured.Set
}
