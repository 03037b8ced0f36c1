package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Nibe bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Uplink   UplinkConfig   `yaml:"uplink"`
	Locale   LocaleConfig   `yaml:"locale"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UplinkConfig contains Nibe Uplink API credentials and polling settings.
type UplinkConfig struct {
	// ClientID and ClientSecret identify the registered Nibe Uplink application.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// RedirectURI must match the URI registered with the application.
	RedirectURI string `yaml:"redirect_uri"`

	// AuthCode is the one-time authorization code used to obtain the first
	// token. Only needed until a session file exists.
	AuthCode string `yaml:"auth_code"`

	// SystemID selects which Nibe Uplink system to poll.
	SystemID int `yaml:"system_id"`

	// PollInterval is the time between snapshot fetches (seconds).
	PollInterval int `yaml:"poll_interval"`

	// SessionFile is where the OAuth2 token is persisted between runs.
	SessionFile string `yaml:"session_file"`

	// BaseURL overrides the API endpoint. Empty means the public API.
	BaseURL string `yaml:"base_url"`
}

// LocaleConfig selects the translation table for parameter labels.
type LocaleConfig struct {
	// Code is the locale code, e.g. "en" or "sv".
	Code string `yaml:"code"`

	// Dir is an optional directory of <code>.json locale files.
	// Empty means the locales embedded in the binary.
	Dir string `yaml:"dir"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for parameter history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// minPollInterval is the smallest allowed polling interval in seconds.
// The Nibe Uplink API rate-limits aggressively below this.
const minPollInterval = 5

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NIBE_SECTION_KEY
// For example: NIBE_CLIENT_SECRET, NIBE_DATABASE_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Uplink: UplinkConfig{
			RedirectURI:  "http://localhost:8000/callback",
			PollInterval: 60,
			SessionFile:  "./data/nibe-session.json",
		},
		Locale: LocaleConfig{
			Code: "en",
		},
		Database: DatabaseConfig{
			Path:        "./data/nibebridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nibebridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NIBE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Uplink credentials are secrets - prefer the environment over YAML
	if v := os.Getenv("NIBE_CLIENT_ID"); v != "" {
		cfg.Uplink.ClientID = v
	}
	if v := os.Getenv("NIBE_CLIENT_SECRET"); v != "" {
		cfg.Uplink.ClientSecret = v
	}
	if v := os.Getenv("NIBE_AUTH_CODE"); v != "" {
		cfg.Uplink.AuthCode = v
	}
	if v := os.Getenv("NIBE_SYSTEM_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Uplink.SystemID = id
		}
	}

	// Database
	if v := os.Getenv("NIBE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("NIBE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NIBE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NIBE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("NIBE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Only construction-time configuration problems are fatal; everything that
// can go wrong per polling cycle is handled at runtime.
func (c *Config) Validate() error {
	var errs []string

	// Uplink validation
	if c.Uplink.ClientID == "" {
		errs = append(errs, "uplink.client_id is required (set NIBE_CLIENT_ID environment variable)")
	}
	if c.Uplink.ClientSecret == "" {
		errs = append(errs, "uplink.client_secret is required (set NIBE_CLIENT_SECRET environment variable)")
	}
	if c.Uplink.SystemID <= 0 {
		errs = append(errs, "uplink.system_id is required")
	}
	if c.Uplink.PollInterval < minPollInterval {
		errs = append(errs, fmt.Sprintf("uplink.poll_interval must be at least %d seconds", minPollInterval))
	}
	if c.Uplink.SessionFile == "" {
		errs = append(errs, "uplink.session_file is required")
	}

	// Locale validation
	if c.Locale.Code == "" {
		errs = append(errs, "locale.code is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set NIBE_INFLUXDB_TOKEN environment variable)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the snapshot polling interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Uplink.PollInterval) * time.Second
}
