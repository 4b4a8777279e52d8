// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink providers.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkPubSub   = "pubsub"
)

// Default search seeds, paired person x topic into CNN searches.
var (
	DefaultPeople = []string{
		"Kamala Harris",
		"Donald Trump",
		"Tim Walz",
		"J D Vance",
		"Ron DeSantis",
		"Nikki Haley",
		"Robert F Kennedy Jr",
	}
	DefaultTopics = []string{
		"Semiconductor manufacturing",
		"Automotive",
		"Medicine",
		"Tire",
	}
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Seeds    SeedsConfig    `mapstructure:"seeds"`
}

// ServerConfig controls the admin HTTP server.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	APIKey                 string `mapstructure:"api_key"`
}

// PipelineConfig sizes the worker pools.
type PipelineConfig struct {
	FetchWorkers int `mapstructure:"fetch_workers"`
	ParseWorkers int `mapstructure:"parse_workers"`
	// MaxAttempts caps fetches per request; 0 retries forever.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// HTTPConfig configures the outbound fetcher.
type HTTPConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	TransientRetries int    `mapstructure:"transient_retries"`
	// RatePerHost caps requests per second to each host. Zero disables pacing.
	RatePerHost float64 `mapstructure:"rate_per_host"`
	Burst       int     `mapstructure:"burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// SinkConfig selects where extracted articles go.
type SinkConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
}

// PostgresConfig controls the article table connection pool.
type PostgresConfig struct {
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
	EnsureSchema           bool   `mapstructure:"ensure_schema"`
}

// TracingConfig configures OpenTelemetry spans around parsing.
type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// PubSubConfig names the topic articles are published to.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// SeedsConfig lists the initial requests sent at startup.
type SeedsConfig struct {
	BBCPages      int `mapstructure:"bbc_pages"`
	GuardianPages int `mapstructure:"guardian_pages"`
	HuffPostPages int `mapstructure:"huffpost_pages"`
	// SearchSites names the search-driven sites each person x topic term is
	// sent to (cnn, nytimes, ap, la, reuters, wp).
	SearchSites []string `mapstructure:"search_sites"`
	People      []string `mapstructure:"people"`
	Topics      []string `mapstructure:"topics"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_seconds", 30)
	v.SetDefault("server.api_key", "")
	v.SetDefault("pipeline.fetch_workers", 10)
	v.SetDefault("pipeline.parse_workers", 10)
	v.SetDefault("pipeline.max_attempts", 0)
	v.SetDefault("http.user_agent", "particle-harvester/0.1")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.transient_retries", 2)
	v.SetDefault("http.rate_per_host", 0)
	v.SetDefault("http.burst", 1)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("tracing.service_name", "particle-harvester")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("sink.provider", SinkMemory)
	v.SetDefault("sink.postgres.dsn", "")
	v.SetDefault("sink.postgres.table", "articles")
	v.SetDefault("sink.postgres.min_conns", 0)
	v.SetDefault("sink.postgres.max_conn_lifetime_minutes", 30)
	v.SetDefault("sink.postgres.max_conns", 4)
	v.SetDefault("sink.postgres.ensure_schema", true)
	v.SetDefault("sink.pubsub.project_id", "")
	v.SetDefault("sink.pubsub.topic_name", "")
	v.SetDefault("seeds.bbc_pages", 1)
	v.SetDefault("seeds.guardian_pages", 0)
	v.SetDefault("seeds.huffpost_pages", 0)
	v.SetDefault("seeds.search_sites", []string{"cnn"})
	v.SetDefault("seeds.people", DefaultPeople)
	v.SetDefault("seeds.topics", DefaultTopics)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be >= 0")
	}
	if c.Pipeline.FetchWorkers <= 0 {
		return fmt.Errorf("pipeline.fetch_workers must be > 0")
	}
	if c.Pipeline.ParseWorkers <= 0 {
		return fmt.Errorf("pipeline.parse_workers must be > 0")
	}
	if c.Pipeline.MaxAttempts < 0 {
		return fmt.Errorf("pipeline.max_attempts must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.RatePerHost < 0 {
		return fmt.Errorf("http.rate_per_host must be >= 0")
	}
	if c.Seeds.BBCPages < 0 || c.Seeds.GuardianPages < 0 || c.Seeds.HuffPostPages < 0 {
		return fmt.Errorf("seeds.bbc_pages, seeds.guardian_pages and seeds.huffpost_pages must be >= 0")
	}
	if c.Tracing.SampleRatio < 0 {
		return fmt.Errorf("tracing.sample_ratio must be >= 0")
	}
	switch c.Sink.Provider {
	case SinkMemory:
	case SinkPostgres:
		if c.Sink.Postgres.DSN == "" {
			return fmt.Errorf("sink.postgres.dsn must be set when sink.provider is postgres")
		}
	case SinkPubSub:
		if c.Sink.PubSub.ProjectID == "" || c.Sink.PubSub.TopicName == "" {
			return fmt.Errorf("sink.pubsub.project_id and sink.pubsub.topic_name must be set when sink.provider is pubsub")
		}
	default:
		return fmt.Errorf("sink.provider %q is not one of memory, postgres, pubsub", c.Sink.Provider)
	}
	return nil
}

// HTTPTimeout returns the per-request fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PostgresMaxConnLifetime converts the configured lifetime to a duration.
func (c Config) PostgresMaxConnLifetime() time.Duration {
	return time.Duration(c.Sink.Postgres.MaxConnLifetimeMinutes) * time.Minute
}

// ShutdownTimeout bounds the drain on exit.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
