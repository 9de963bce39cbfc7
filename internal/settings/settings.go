package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/alfred-weather/internal/store"
	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/i474232898/alfred-weather/internal/weather/providers"
)

// CurrentVersion is the settings schema version written by this build.
const CurrentVersion = 4

const (
	DefaultUnits      = weather.UnitsUS
	DefaultIcons      = "grzanka"
	DefaultTimeFormat = "%Y-%m-%d %H:%M"
	DefaultDays       = 3
	MaxDays           = 10
)

// FileName is the settings file name inside the workflow data directory.
const FileName = "settings.json"

var validate = validator.New()

// Settings is the persisted user configuration.
type Settings struct {
	Version    int               `json:"version"`
	Units      weather.Units     `json:"units" validate:"oneof=us si"`
	Icons      string            `json:"icons" validate:"required"`
	TimeFormat string            `json:"time_format" validate:"required"`
	Days       int               `json:"days" validate:"min=0,max=10"`
	Service    weather.ServiceID `json:"service,omitempty" validate:"omitempty,oneof=wund fio"`
	KeyWund    string            `json:"key.wund,omitempty"`
	KeyFio     string            `json:"key.fio,omitempty"`
	Location   *weather.Location `json:"location,omitempty"`
	FeelsLike  bool              `json:"feelslike"`

	// Fields of older schema versions, consumed by migration.
	LegacyKey  string `json:"key,omitempty"`
	LegacyName string `json:"name,omitempty"`
}

// Defaults returns settings for a fresh install.
func Defaults() *Settings {
	return &Settings{
		Version:    CurrentVersion,
		Units:      DefaultUnits,
		Icons:      DefaultIcons,
		TimeFormat: DefaultTimeFormat,
		Days:       DefaultDays,
	}
}

// Key returns the API key stored for service id.
func (s *Settings) Key(id weather.ServiceID) string {
	switch id {
	case weather.ServiceWund:
		return s.KeyWund
	case weather.ServiceFio:
		return s.KeyFio
	}
	return ""
}

// SetKey stores key for service id.
func (s *Settings) SetKey(id weather.ServiceID, key string) error {
	switch id {
	case weather.ServiceWund:
		s.KeyWund = key
	case weather.ServiceFio:
		s.KeyFio = key
	default:
		return fmt.Errorf("unknown weather service %q", id)
	}
	return nil
}

// Options returns the provider options implied by the settings.
func (s *Settings) Options(clock *weather.Clock) weather.Options {
	opts := weather.Options{Units: s.Units, FeelsLike: s.FeelsLike}
	if clock != nil {
		opts.Zone = clock.Remote
	}
	return opts
}

// Validate checks field values.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// CheckSetup reports the first missing piece of configuration needed to
// show weather.
func (s *Settings) CheckSetup() error {
	if s.Service == "" {
		return &weather.SetupError{
			Title:    "You need to set your weather service",
			Subtitle: `Use the "wset service" command.`,
		}
	}
	if s.Key(s.Service) == "" {
		title := string(s.Service)
		if p, err := providers.Describe(s.Service); err == nil {
			title = p.Title()
		}
		return &weather.SetupError{
			Title:    "Missing API key for " + title,
			Subtitle: `Use the "wset key" command.`,
		}
	}
	if s.Location == nil {
		return &weather.SetupError{
			Title:    "Missing default location",
			Subtitle: `You must specify a default location with the "wset location" command`,
		}
	}
	return nil
}

// Store reads and writes the settings file.
type Store struct {
	path    string
	locator Locator
}

// NewStore creates a settings store persisted at path. locator is used by
// migrations that need to geocode.
func NewStore(path string, locator Locator) *Store {
	return &Store{path: path, locator: locator}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file over the defaults, migrating older schema
// versions once. With check set, missing configuration is reported as a
// *weather.SetupError.
func (s *Store) Load(ctx context.Context, check bool) (*Settings, error) {
	cfg, err := s.read(ctx, false)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if check {
		if err := cfg.CheckSetup(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// read decodes and migrates the settings file. With lenient set, a failed
// migration step is logged and the settings are returned as far as they
// migrated; the step runs again on the next load.
func (s *Store) read(ctx context.Context, lenient bool) (*Settings, error) {
	cfg := Defaults()

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		// A file without a version field predates versioning.
		cfg.Version = 0
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if cfg.Version < CurrentVersion {
		from := cfg.Version
		if err := Migrate(ctx, cfg, s.locator); err != nil {
			if !lenient {
				return nil, err
			}
			log.Printf("ERROR: %v; continuing at version %d", err, cfg.Version)
			return cfg, nil
		}
		if err := s.Save(cfg); err != nil {
			return nil, err
		}
		log.Printf("INFO: migrated settings from version %d to %d", from, cfg.Version)
	}
	return cfg, nil
}

// repair resets fields that fail validation to their defaults.
func (s *Settings) repair() {
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(s), &verrs) {
		return
	}

	d := Defaults()
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Units":
			s.Units = d.Units
		case "Icons":
			s.Icons = d.Icons
		case "TimeFormat":
			s.TimeFormat = d.TimeFormat
		case "Days":
			s.Days = d.Days
		case "Service":
			s.Service = ""
		default:
			continue
		}
		log.Printf("INFO: resetting invalid setting %s=%v to its default", fe.Field(), fe.Value())
	}
}

// Save writes cfg, creating the data directory if needed.
func (s *Store) Save(cfg *Settings) error {
	if err := store.EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Update loads the settings without setup checks, applies fn and saves.
// Invalid stored values are reset to their defaults first and an
// unfinished migration does not block the write, so a broken file can
// always be fixed by a command. Only the result is validated.
func (s *Store) Update(ctx context.Context, fn func(*Settings) error) (*Settings, error) {
	cfg, err := s.read(ctx, true)
	if err != nil {
		return nil, err
	}
	cfg.repair()

	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
