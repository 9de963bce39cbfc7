package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// Option customizes a provider or the Google client.
type Option func(*options)

type options struct {
	baseURL         string
	autocompleteURL string
	backoff         BackoffConfig
}

// WithBaseURL overrides the upstream API base URL.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithAutocompleteURL overrides the location autocomplete endpoint.
func WithAutocompleteURL(u string) Option {
	return func(o *options) {
		o.autocompleteURL = u
	}
}

// WithBackoff sets the retry policy for upstream calls.
func WithBackoff(b BackoffConfig) Option {
	return func(o *options) {
		o.backoff = b
	}
}

func buildOptions(defaultURL string, opts []Option) options {
	o := options{baseURL: defaultURL, backoff: DefaultBackoff}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the provider for service id, authenticated with apiKey.
func New(id weather.ServiceID, client *http.Client, apiKey string, opts ...Option) (weather.Provider, error) {
	switch id {
	case weather.ServiceWund:
		return NewWundergroundProvider(client, apiKey, opts...), nil
	case weather.ServiceFio:
		return NewForecastIOProvider(client, apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown weather service %q", id)
	}
}

// Describe returns the static metadata of a service without credentials.
func Describe(id weather.ServiceID) (weather.Provider, error) {
	return New(id, http.DefaultClient, "")
}

// base holds what every upstream client shares.
type base struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newBase(name, defaultURL string, client *http.Client, apiKey string, opts []Option) base {
	o := buildOptions(defaultURL, opts)
	return base{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: o.backoff,
		},
		circuit: newCircuit(name),
	}
}

// get fetches rawURL with the client's resilience settings.
func (b base) get(ctx context.Context, rawURL string) ([]byte, error) {
	return fetchWithResilience(ctx, b.httpCfg, b.circuit, rawURL)
}
