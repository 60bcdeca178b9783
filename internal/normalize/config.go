package normalize

import (
	"fmt"
	"time"
)

const (
	maxTitleLength       = 200
	maxLocationLength    = 255
	maxDescriptionLength = 2000

	// MaxDurationMinutes bounds a timed event to one day.
	MaxDurationMinutes = 1440
	// MaxReminderMinutes bounds a reminder to four weeks.
	MaxReminderMinutes = 40320
)

// Config holds the defaults a Normalizer applies. The zero value is not
// usable; build one with DefaultConfig or NewConfig. A Config is never
// mutated after construction.
type Config struct {
	location         *time.Location
	defaultDuration  int
	defaultReminder  int
	defaultStartTime TimeOfDay
	defaultCategory  Category
}

// Option adjusts a Config under construction.
type Option func(*Config) error

// DefaultConfig returns the stock defaults: UTC, 09:00 starts, 60 minute
// durations, 15 minute reminders and the "other" category.
func DefaultConfig() Config {
	return Config{
		location:         time.UTC,
		defaultDuration:  60,
		defaultReminder:  15,
		defaultStartTime: TimeOfDay{Hour: 9},
		defaultCategory:  CategoryOther,
	}
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// WithLocation sets the zone used to derive "today" from the reference instant.
func WithLocation(loc *time.Location) Option {
	return func(cfg *Config) error {
		if loc == nil {
			return fmt.Errorf("normalize: location is required")
		}
		cfg.location = loc
		return nil
	}
}

// WithDefaultDuration sets the duration used when a timed event carries none
// that can be resolved.
func WithDefaultDuration(minutes int) Option {
	return func(cfg *Config) error {
		if minutes <= 0 || minutes > MaxDurationMinutes {
			return fmt.Errorf("normalize: default duration %d out of range", minutes)
		}
		cfg.defaultDuration = minutes
		return nil
	}
}

// WithDefaultReminder sets the reminder used when none is valid.
func WithDefaultReminder(minutes int) Option {
	return func(cfg *Config) error {
		if minutes < 0 || minutes > MaxReminderMinutes {
			return fmt.Errorf("normalize: default reminder %d out of range", minutes)
		}
		cfg.defaultReminder = minutes
		return nil
	}
}

// WithDefaultStartTime sets the start used when a candidate omits one.
func WithDefaultStartTime(t TimeOfDay) Option {
	return func(cfg *Config) error {
		if !t.valid() {
			return fmt.Errorf("normalize: default start time %s out of range", t)
		}
		cfg.defaultStartTime = t
		return nil
	}
}

// Location returns the default zone.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// DefaultDuration returns the fallback duration in minutes.
func (c Config) DefaultDuration() int { return c.defaultDuration }

// DefaultReminder returns the fallback reminder in minutes.
func (c Config) DefaultReminder() int { return c.defaultReminder }

// DefaultStartTime returns the fallback start time.
func (c Config) DefaultStartTime() TimeOfDay { return c.defaultStartTime }

// DefaultCategory returns the category used for unknown values.
func (c Config) DefaultCategory() Category { return c.defaultCategory }
