package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "Lou Gehrig", cfg.Search.DefaultQuery)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, `"Lou Gehrig" OR "ALS" OR "amyotrophic lateral sclerosis"`, cfg.Search.QueryContext)
	assert.Contains(t, cfg.Search.Keywords, "iron horse")
	assert.Equal(t, 2, cfg.Search.KeywordIncrement)
	assert.Equal(t, 1, cfg.Search.ScoreMin)
	assert.Equal(t, 10, cfg.Search.ScoreMax)
	assert.Equal(t, 15*time.Second, cfg.ConnectorTimeout())
	assert.Len(t, cfg.Connectors.RSSFeeds, 2)
	assert.Equal(t, "noop", cfg.Publisher.Provider)
	assert.Equal(t, 30*time.Minute, cfg.DB.MaxConnLifetime())
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  default_query: Iron Horse
  max_results: 10
connectors:
  timeout_seconds: 5
  nyt_api_key: nyt-secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Iron Horse", cfg.Search.DefaultQuery)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.ConnectorTimeout())
	assert.Equal(t, "nyt-secret", cfg.Connectors.NYTAPIKey)
}

func TestLoadMissingConfigFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LGFC_SEARCH_MAX_RESULTS", "7")
	t.Setenv("LGFC_CONNECTORS_RSS_FEEDS", "https://one.example.com/rss, https://two.example.com/rss")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.Equal(t, []string{"https://one.example.com/rss", "https://two.example.com/rss"}, cfg.Connectors.RSSFeeds)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Search: SearchConfig{
				MaxResults:       50,
				KeywordIncrement: 2,
				ScoreMin:         1,
				ScoreMax:         10,
			},
			Connectors: ConnectorsConfig{TimeoutSeconds: 15},
			Publisher:  PublisherConfig{Provider: "noop"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max results zero", func(c *Config) { c.Search.MaxResults = 0 }},
		{"max results over ceiling", func(c *Config) { c.Search.MaxResults = MaxResultsCeiling + 1 }},
		{"increment zero", func(c *Config) { c.Search.KeywordIncrement = 0 }},
		{"inverted score bounds", func(c *Config) { c.Search.ScoreMin = 11 }},
		{"timeout zero", func(c *Config) { c.Connectors.TimeoutSeconds = 0 }},
		{"pubsub without topic", func(c *Config) {
			c.Publisher = PublisherConfig{Provider: "pubsub", ProjectID: "proj"}
		}},
		{"unknown publisher", func(c *Config) { c.Publisher.Provider = "kafka" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsPubsubWithIDs(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Search: SearchConfig{
			MaxResults:       50,
			KeywordIncrement: 2,
			ScoreMin:         1,
			ScoreMax:         10,
		},
		Connectors: ConnectorsConfig{TimeoutSeconds: 15},
		Publisher:  PublisherConfig{Provider: "pubsub", ProjectID: "proj", TopicID: "runs"},
	}
	require.NoError(t, cfg.Validate())
}
