// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	DB         DBConfig         `mapstructure:"db"`
	Search     SearchConfig     `mapstructure:"search"`
	Connectors ConnectorsConfig `mapstructure:"connectors"`
	Publisher  PublisherConfig  `mapstructure:"publisher"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// SearchConfig governs query enhancement, scoring, and result caps.
type SearchConfig struct {
	DefaultQuery     string   `mapstructure:"default_query"`
	MaxResults       int      `mapstructure:"max_results"`
	QueryContext     string   `mapstructure:"query_context"`
	Keywords         []string `mapstructure:"keywords"`
	KeywordIncrement int      `mapstructure:"keyword_increment"`
	ScoreMin         int      `mapstructure:"score_min"`
	ScoreMax         int      `mapstructure:"score_max"`
}

// ConnectorsConfig configures the external source connectors.
type ConnectorsConfig struct {
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	RSSFeeds       []string `mapstructure:"rss_feeds"`
	NYTAPIKey      string   `mapstructure:"nyt_api_key"`
	BraveAPIKey    string   `mapstructure:"brave_api_key"`
}

// PublisherConfig selects the run-summary publisher.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// MetricsConfig controls the optional exposition listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// MaxResultsCeiling bounds the per-run result cap regardless of flags.
const MaxResultsCeiling = 100

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LGFC")
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

	// Env vars deliver list values as one comma-separated string.
	cfg.Connectors.RSSFeeds = splitList(cfg.Connectors.RSSFeeds)
	cfg.Search.Keywords = splitList(cfg.Search.Keywords)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("search.default_query", "Lou Gehrig")
	v.SetDefault("search.max_results", 50)
	v.SetDefault("search.query_context", `"Lou Gehrig" OR "ALS" OR "amyotrophic lateral sclerosis"`)
	v.SetDefault("search.keywords", []string{
		"lou gehrig",
		"als",
		"amyotrophic lateral sclerosis",
		"iron horse",
		"yankees",
	})
	v.SetDefault("search.keyword_increment", 2)
	v.SetDefault("search.score_min", 1)
	v.SetDefault("search.score_max", 10)
	v.SetDefault("connectors.timeout_seconds", 15)
	v.SetDefault("connectors.rss_feeds", []string{
		"https://www.mlb.com/feeds/news/rss.xml",
		"https://www.mlb.com/yankees/feeds/news/rss.xml",
	})
	v.SetDefault("publisher.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Search.MaxResults < 1 || c.Search.MaxResults > MaxResultsCeiling {
		return fmt.Errorf("search.max_results must be in [1,%d]", MaxResultsCeiling)
	}
	if c.Search.KeywordIncrement <= 0 {
		return fmt.Errorf("search.keyword_increment must be > 0")
	}
	if c.Search.ScoreMin > c.Search.ScoreMax {
		return fmt.Errorf("search.score_min must be <= search.score_max")
	}
	if c.Connectors.TimeoutSeconds <= 0 {
		return fmt.Errorf("connectors.timeout_seconds must be > 0")
	}
	switch c.Publisher.Provider {
	case "", "noop":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.TopicID == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic_id must be set when publisher is pubsub")
		}
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	return nil
}

// ConnectorTimeout converts the connector timeout config into a duration.
func (c Config) ConnectorTimeout() time.Duration {
	return time.Duration(c.Connectors.TimeoutSeconds) * time.Second
}

// MaxConnLifetime converts the pool lifetime config into a duration.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
