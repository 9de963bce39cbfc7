package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/alfred-weather/internal/weather"
)

const (
	fioSite        = "http://forecast.io"
	fioAPI         = "https://api.forecast.io/forecast"
	fioForecastURL = fioSite + "/#/f"
)

// fioIcons maps Forecast.io icon codes onto Weather Underground names.
var fioIcons = map[string]string{
	"clear-day":           "clear",
	"clear-night":         "nt_clear",
	"partly-cloudy-day":   "partlycloudy",
	"partly-cloudy-night": "nt_partlycloudy",
	"wind":                "hazy",
}

// ForecastIOProvider implements the weather.Provider interface for Forecast.io.
type ForecastIOProvider struct {
	base
}

func NewForecastIOProvider(client *http.Client, apiKey string, opts ...Option) *ForecastIOProvider {
	return &ForecastIOProvider{base: newBase("forecastio", fioAPI, client, apiKey, opts)}
}

func (p *ForecastIOProvider) Name() weather.ServiceID  { return weather.ServiceFio }
func (p *ForecastIOProvider) Title() string            { return "Forecast.io" }
func (p *ForecastIOProvider) URL() string              { return fioSite }
func (p *ForecastIOProvider) KeyURL() string           { return "https://developer.forecast.io/register" }
func (p *ForecastIOProvider) Icons() map[string]string { return fioIcons }

func (p *ForecastIOProvider) ForecastURL(coords weather.Coordinates, date time.Time) string {
	u := fmt.Sprintf("%s/%s", fioForecastURL, coords.Key())
	if !date.IsZero() {
		u = fmt.Sprintf("%s/%d", u, weather.DateOf(date).Unix())
	}
	return u
}

func (p *ForecastIOProvider) Fetch(ctx context.Context, coords weather.Coordinates, opts weather.Options) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("forecast.io api key is not configured")
	}

	units := opts.Units
	if units == "" {
		units = weather.UnitsUS
	}

	values := url.Values{}
	values.Set("units", string(units))

	u := fmt.Sprintf("%s/%s/%s?%s", p.baseURL, url.PathEscape(p.apiKey), coords.Key(), values.Encode())
	body, err := p.get(ctx, u)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, fioStatusError(se)
		}
		return nil, err
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("forecast.io: decode response: %w", err)
	}
	if envelope.Error != "" {
		return nil, &weather.UpstreamError{
			Service:     "fio",
			Description: "Error getting weather: " + envelope.Error,
			Detail:      envelope.Error,
		}
	}

	return json.RawMessage(body), nil
}

func fioStatusError(se *StatusError) error {
	msg := "forecast.io seems to be down"
	if se.Code == http.StatusForbidden {
		msg = "Your key is invalid"
	} else {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(se.Body, &payload); err != nil {
			msg = fmt.Sprintf("forecast.io returned code %d", se.Code)
		} else if payload.Error == "An invalid location was provided." {
			msg = "Your location is invalid"
		}
	}
	return &weather.UpstreamError{Service: "fio", Description: msg, Detail: string(se.Body)}
}

type fioPayload struct {
	Currently *struct {
		Summary             *string  `json:"summary"`
		Icon                string   `json:"icon"`
		Humidity            *float64 `json:"humidity"`
		Temperature         *float64 `json:"temperature"`
		ApparentTemperature *float64 `json:"apparentTemperature"`
	} `json:"currently"`
	Daily *struct {
		Data []fioDay `json:"data"`
	} `json:"daily"`
	Alerts []struct {
		Title   string `json:"title"`
		Expires int64  `json:"expires"`
		URI     string `json:"uri"`
	} `json:"alerts"`
	Flags struct {
		Units string `json:"units"`
	} `json:"flags"`
}

type fioDay struct {
	Time                   int64    `json:"time"`
	Summary                string   `json:"summary"`
	Icon                   string   `json:"icon"`
	TemperatureMax         *float64 `json:"temperatureMax"`
	TemperatureMin         *float64 `json:"temperatureMin"`
	ApparentTemperatureMax *float64 `json:"apparentTemperatureMax"`
	ApparentTemperatureMin *float64 `json:"apparentTemperatureMin"`
	PrecipProbability      *float64 `json:"precipProbability"`
	SunriseTime            int64    `json:"sunriseTime"`
	SunsetTime             int64    `json:"sunsetTime"`
}

// MatchesUnits reports whether a cached response was fetched in units.
func (p *ForecastIOProvider) MatchesUnits(raw json.RawMessage, units weather.Units) bool {
	var payload struct {
		Flags struct {
			Units string `json:"units"`
		} `json:"flags"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	return payload.Flags.Units == string(units)
}

func (p *ForecastIOProvider) Normalize(raw json.RawMessage, opts weather.Options) (weather.Snapshot, error) {
	var payload fioPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("forecast.io: decode response: %w", err)
	}

	cur := payload.Currently
	if cur == nil {
		return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: "currently"}
	}
	switch {
	case cur.Summary == nil:
		return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: "currently.summary"}
	case cur.Temperature == nil:
		return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: "currently.temperature"}
	case cur.Humidity == nil:
		return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: "currently.humidity"}
	}
	if payload.Daily == nil {
		return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: "daily"}
	}

	zone := opts.Location()
	var snap weather.Snapshot

	for _, a := range payload.Alerts {
		alert := weather.Alert{Description: a.Title, URI: a.URI}
		if a.Expires > 0 {
			exp := time.Unix(a.Expires, 0)
			alert.Expires = &exp
		}
		snap.Alerts = append(snap.Alerts, alert)
	}

	temp := *cur.Temperature
	if opts.FeelsLike && cur.ApparentTemperature != nil {
		temp = *cur.ApparentTemperature
	}
	snap.Current = weather.Current{
		Description: *cur.Summary,
		Icon:        weather.TranslateIcon(p, cur.Icon),
		Humidity:    *cur.Humidity * 100,
		Temperature: temp,
	}

	for i, d := range payload.Daily.Data {
		switch {
		case d.TemperatureMax == nil:
			return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: fmt.Sprintf("daily.data[%d].temperatureMax", i)}
		case d.TemperatureMin == nil:
			return weather.Snapshot{}, &weather.ParseError{Service: "fio", Field: fmt.Sprintf("daily.data[%d].temperatureMin", i)}
		}
		hi, lo := *d.TemperatureMax, *d.TemperatureMin
		if opts.FeelsLike && d.ApparentTemperatureMax != nil && d.ApparentTemperatureMin != nil {
			hi, lo = *d.ApparentTemperatureMax, *d.ApparentTemperatureMin
		}

		day := weather.Day{
			Date:        weather.DateOf(time.Unix(d.Time, 0).In(zone)),
			Description: strings.TrimSuffix(d.Summary, "."),
			Icon:        weather.TranslateIcon(p, d.Icon),
			High:        int(math.Round(hi)),
			Low:         int(math.Round(lo)),
		}
		if d.PrecipProbability != nil {
			day.Precip = intPtr(int(math.Round(*d.PrecipProbability * 100)))
		}
		if d.SunriseTime > 0 {
			t := time.Unix(d.SunriseTime, 0).In(zone)
			day.Sunrise = &t
		}
		if d.SunsetTime > 0 {
			t := time.Unix(d.SunsetTime, 0).In(zone)
			day.Sunset = &t
		}
		snap.Forecast = append(snap.Forecast, day)
	}

	if len(snap.Forecast) > 0 {
		snap.Info.Sunrise = snap.Forecast[0].Sunrise
		snap.Info.Sunset = snap.Forecast[0].Sunset
	}

	return snap, nil
}
