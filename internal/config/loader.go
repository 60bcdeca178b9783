package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/example/autoplanner/internal/normalize"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML
// configuration file.
const ConfigFileEnv = "AUTOPLANNER_CONFIG_FILE"

// Config captures configuration values for the autoplanner binaries.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	Location         *time.Location
	LogLevel         string
	LogFormat        string
	BatchWorkers     int
	DefaultDuration  int
	DefaultReminder  int
	DefaultStartTime normalize.TimeOfDay
}

// Load reads configuration from AUTOPLANNER_* environment variables, layered
// over the file named by AUTOPLANNER_CONFIG_FILE when it is set.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv(ConfigFileEnv)))
}

// LoadFile is Load with an explicit configuration file. An empty path skips
// the file. Environment variables take precedence over file values.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOPLANNER")
	v.AutomaticEnv()

	v.SetDefault("http_port", 8080)
	v.SetDefault("sqlite_dsn", "autoplanner.db")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("batch_workers", 4)
	v.SetDefault("default_duration", 60)
	v.SetDefault("default_reminder", 15)
	v.SetDefault("default_start_time", "09:00:00")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{}
	invalid := make([]string, 0, 2)

	intValue := func(key string, min, max int) int {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n < min || n > max {
			invalid = append(invalid, key)
			return 0
		}
		return n
	}

	cfg.HTTPPort = intValue("http_port", 1, 65535)
	cfg.BatchWorkers = intValue("batch_workers", 1, 256)
	cfg.DefaultDuration = intValue("default_duration", 1, normalize.MaxDurationMinutes)
	cfg.DefaultReminder = intValue("default_reminder", 0, normalize.MaxReminderMinutes)

	cfg.SQLiteDSN = strings.TrimSpace(v.GetString("sqlite_dsn"))
	if cfg.SQLiteDSN == "" {
		invalid = append(invalid, "sqlite_dsn")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone")))
	if err != nil {
		invalid = append(invalid, "timezone")
	}
	cfg.Location = loc

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("log_level")))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log_level")
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(v.GetString("log_format")))
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		invalid = append(invalid, "log_format")
	}

	start, err := normalize.ParseTimeOfDay(v.GetString("default_start_time"))
	if err != nil {
		invalid = append(invalid, "default_start_time")
	}
	cfg.DefaultStartTime = start

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Normalizer returns the normalize.Config described by cfg.
func (c Config) Normalizer() (normalize.Config, error) {
	return normalize.NewConfig(
		normalize.WithLocation(c.Location),
		normalize.WithDefaultDuration(c.DefaultDuration),
		normalize.WithDefaultReminder(c.DefaultReminder),
		normalize.WithDefaultStartTime(c.DefaultStartTime),
	)
}
