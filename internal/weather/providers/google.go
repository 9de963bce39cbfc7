package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/kelvins/geocoder"
	"github.com/patrickmn/go-cache"
)

const googleTimeZoneAPI = "https://maps.googleapis.com/maps/api/timezone/json"

// geocoder reads its key from a package variable.
var geocoderMu sync.Mutex

// Geocoded is a forward geocoding result. Address is Google's formatted
// address and may be empty.
type Geocoded struct {
	weather.Coordinates
	Address string
}

// GeocodeFunc resolves a free-form query to coordinates.
type GeocodeFunc func(ctx context.Context, apiKey, query string) (Geocoded, error)

func kelvinsGeocode(_ context.Context, apiKey, query string) (Geocoded, error) {
	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return Geocoded{}, err
	}
	res := Geocoded{Coordinates: weather.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}}

	// Forward geocoding only yields coordinates; the formatted address comes
	// from the reverse lookup.
	addrs, err := geocoder.GeocodingReverse(loc)
	if err != nil {
		log.Printf("DEBUG: no formatted address for %q: %v", query, err)
		return res, nil
	}
	for _, a := range addrs {
		if a.FormattedAddress != "" {
			res.Address = a.FormattedAddress
			break
		}
	}
	return res, nil
}

// GoogleClient wraps the Google geocoding and time zone APIs.
type GoogleClient struct {
	base
	geocode GeocodeFunc
	lookups *cache.Cache
	now     func() time.Time
}

// NewGoogleClient creates a Google client. Geocoding results are memoized
// for the life of the process.
func NewGoogleClient(client *http.Client, apiKey string, opts ...Option) *GoogleClient {
	return &GoogleClient{
		base:    newBase("google", googleTimeZoneAPI, client, apiKey, opts),
		geocode: kelvinsGeocode,
		lookups: cache.New(1*time.Hour, 2*time.Hour),
		now:     time.Now,
	}
}

// WithGeocoder replaces the forward geocoder. Used by tests.
func (g *GoogleClient) WithGeocoder(fn GeocodeFunc) *GoogleClient {
	g.geocode = fn
	return g
}

// Lookup geocodes query and resolves the time zone at the result. Name is
// Google's formatted address, or the query as typed when there is none, and
// ShortName the text of Name before the first comma.
func (g *GoogleClient) Lookup(ctx context.Context, query string) (weather.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return weather.Location{}, &weather.UpstreamError{Service: "google", Description: "Location is empty"}
	}

	if cached, found := g.lookups.Get(strings.ToLower(query)); found {
		log.Printf("DEBUG: using memoized location for %q", query)
		return cached.(weather.Location), nil
	}

	found, err := g.geocode(ctx, g.apiKey, query)
	if err != nil {
		log.Printf("ERROR: geocoding %q failed: %v", query, err)
		return weather.Location{}, &weather.UpstreamError{
			Service:     "google",
			Description: fmt.Sprintf("Could not find %q", query),
			Detail:      err.Error(),
		}
	}

	tz, err := g.TimeZone(ctx, found.Coordinates)
	if err != nil {
		return weather.Location{}, err
	}

	name := strings.TrimSpace(found.Address)
	if name == "" {
		name = query
	}
	loc := weather.Location{
		Name:      name,
		ShortName: ShortName(name),
		Latitude:  found.Latitude,
		Longitude: found.Longitude,
		Timezone:  tz,
	}
	g.lookups.Set(strings.ToLower(query), loc, cache.DefaultExpiration)
	return loc, nil
}

// ShortName returns the part of a place name before the first comma.
func ShortName(name string) string {
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// TimeZone returns the IANA zone name at coords.
func (g *GoogleClient) TimeZone(ctx context.Context, coords weather.Coordinates) (string, error) {
	values := url.Values{}
	values.Set("location", coords.Key())
	values.Set("timestamp", fmt.Sprintf("%d", g.now().Unix()))
	if g.apiKey != "" {
		values.Set("key", g.apiKey)
	}

	body, err := g.get(ctx, g.baseURL+"?"+values.Encode())
	if err != nil {
		return "", &weather.UpstreamError{
			Service:     "google",
			Description: "Could not look up the time zone",
			Detail:      err.Error(),
		}
	}

	var payload struct {
		Status       string `json:"status"`
		TimeZoneID   string `json:"timeZoneId"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("google: decode time zone response: %w", err)
	}
	if payload.Status != "OK" {
		desc := payload.ErrorMessage
		if desc == "" {
			desc = "Time zone lookup failed: " + payload.Status
		}
		return "", &weather.UpstreamError{Service: "google", Description: desc, Detail: payload.Status}
	}
	return payload.TimeZoneID, nil
}
