// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Rate    RateConfig    `mapstructure:"rate"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ArchiveConfig identifies the archive host and the outbound identity.
type ArchiveConfig struct {
	Host string `mapstructure:"host"`
	// UserAgent must carry contact information per archive policy.
	UserAgent string            `mapstructure:"user_agent"`
	Headers   map[string]string `mapstructure:"headers"`
}

// RateConfig governs the shared token bucket.
type RateConfig struct {
	// RequestsPerSecond is the archive's published limit.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// SafetyFactor scales the nominal rate down to leave headroom.
	SafetyFactor float64 `mapstructure:"safety_factor"`
	Capacity     float64 `mapstructure:"capacity"`
}

// HTTPConfig configures HTTP client retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int   `mapstructure:"timeout_seconds"`
	MaxRetries       int   `mapstructure:"max_retries"`
	BackoffInitialMs int   `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int   `mapstructure:"backoff_max_ms"`
	RetryStatusCodes []int `mapstructure:"retry_status_codes"`
}

// StorageConfig sets paths for record and raw-body persistence.
type StorageConfig struct {
	BasePath  string `mapstructure:"base_path"`
	SaveRaw   bool   `mapstructure:"save_raw"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DBConfig controls the optional Postgres sink.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// BatchConfig governs batch fan-out.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EDGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.host", "www.sec.gov")
	v.SetDefault("archive.user_agent", "edgar-ingest/0.1 (ops@finfeed.dev)")
	v.SetDefault("rate.requests_per_second", 10.0)
	v.SetDefault("rate.safety_factor", 0.7)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 500)
	v.SetDefault("http.backoff_max_ms", 10000)
	v.SetDefault("http.retry_status_codes", []int{429, 500, 502, 503, 504})
	v.SetDefault("storage.base_path", "data")
	v.SetDefault("storage.save_raw", true)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Everything here
// is fatal at startup; nothing below this layer re-validates mid-batch.
func (c Config) Validate() error {
	if c.Archive.UserAgent == "" {
		return fmt.Errorf("archive.user_agent must identify a contact")
	}
	if c.Rate.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate.requests_per_second must be > 0")
	}
	if c.Rate.SafetyFactor <= 0 || c.Rate.SafetyFactor > 1 {
		return fmt.Errorf("rate.safety_factor must be in (0, 1]")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Storage.BasePath == "" && c.DB.DSN == "" {
		return fmt.Errorf("either storage.base_path or db.dsn must be set")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be > 0")
	}
	return nil
}

// HTTPTimeout converts the timeout knob into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial converts the initial backoff knob into a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the backoff cap knob into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
