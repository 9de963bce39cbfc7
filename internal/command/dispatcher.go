package command

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/settings"
	"github.com/i474232898/alfred-weather/internal/weather"
)

// Verb names a read or write command.
type Verb string

const (
	VerbWeather    Verb = "weather"
	VerbSun        Verb = "sun"
	VerbUnits      Verb = "units"
	VerbDays       Verb = "days"
	VerbService    Verb = "service"
	VerbKey        Verb = "key"
	VerbIcons      Verb = "icons"
	VerbTimeFormat Verb = "time_format"
	VerbLocation   Verb = "location"
	VerbFeelsLike  Verb = "feelslike"
)

// TellFunc produces the item list for a read command.
type TellFunc func(ctx context.Context, query string) ([]present.Item, error)

// DoFunc performs a write command and returns a confirmation message.
type DoFunc func(ctx context.Context, query string) (string, error)

// Locator geocodes free-form place names.
type Locator interface {
	Lookup(ctx context.Context, query string) (weather.Location, error)
}

// ProviderFactory returns the weather provider for a service.
type ProviderFactory func(id weather.ServiceID, apiKey string) (weather.Provider, error)

// Env carries the dependencies of every command.
type Env struct {
	Settings     *settings.Store
	Weather      *weather.Service
	Locator      Locator
	Providers    ProviderFactory
	Autocomplete func(ctx context.Context, query string) ([]string, error)
	Icons        *present.Icons
	Now          func() time.Time
}

// Dispatcher routes verbs to their handlers.
type Dispatcher struct {
	env  Env
	tell map[Verb]TellFunc
	do   map[Verb]DoFunc
}

// New creates a Dispatcher over env.
func New(env Env) *Dispatcher {
	if env.Now == nil {
		env.Now = time.Now
	}

	d := &Dispatcher{env: env}
	d.tell = map[Verb]TellFunc{
		VerbWeather:    d.tellWeather,
		VerbSun:        d.tellSun,
		VerbUnits:      d.tellUnits,
		VerbDays:       d.tellDays,
		VerbService:    d.tellService,
		VerbKey:        d.tellKey,
		VerbIcons:      d.tellIcons,
		VerbTimeFormat: d.tellTimeFormat,
		VerbLocation:   d.tellLocation,
		VerbFeelsLike:  d.tellFeelsLike,
	}
	d.do = map[Verb]DoFunc{
		VerbUnits:      d.doUnits,
		VerbDays:       d.doDays,
		VerbService:    d.doService,
		VerbKey:        d.doKey,
		VerbIcons:      d.doIcons,
		VerbTimeFormat: d.doTimeFormat,
		VerbLocation:   d.doLocation,
		VerbFeelsLike:  d.doFeelsLike,
	}
	return d
}

// TellVerbs lists the read commands.
func (d *Dispatcher) TellVerbs() []Verb {
	return sortedVerbs(d.tell)
}

// DoVerbs lists the write commands.
func (d *Dispatcher) DoVerbs() []Verb {
	return sortedVerbs(d.do)
}

// Tell runs a read command. The outcome always carries at least one item
// unless the command legitimately has nothing to show.
func (d *Dispatcher) Tell(ctx context.Context, verb, query string) Outcome {
	fn, ok := d.tell[Verb(verb)]
	if !ok {
		return Outcome{
			Kind:  Internal,
			Items: []present.Item{present.NewItem(fmt.Sprintf("Invalid action %q", verb), "")},
			Err:   fmt.Errorf("%w: %s", errUnknownAction, verb),
		}
	}

	items, err := fn(ctx, query)
	if err != nil {
		log.Printf("ERROR: tell %s failed: %v", verb, err)
		return tellFailure(err)
	}
	return Outcome{Kind: OK, Items: items}
}

// Do runs a write command.
func (d *Dispatcher) Do(ctx context.Context, verb, query string) Outcome {
	fn, ok := d.do[Verb(verb)]
	if !ok {
		log.Printf("ERROR: invalid command %q", verb)
		return Outcome{
			Kind:    Internal,
			Message: fmt.Sprintf("Invalid command %q", verb),
			Err:     fmt.Errorf("%w: %s", errUnknownCommand, verb),
		}
	}

	msg, err := fn(ctx, query)
	if err != nil {
		log.Printf("ERROR: do %s failed: %v", verb, err)
		return doFailure(err)
	}
	return Outcome{Kind: OK, Message: msg}
}

func sortedVerbs[F any](table map[Verb]F) []Verb {
	verbs := make([]Verb, 0, len(table))
	for v := range table {
		verbs = append(verbs, v)
	}
	sort.Slice(verbs, func(i, j int) bool { return verbs[i] < verbs[j] })
	return verbs
}
