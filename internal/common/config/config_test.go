// internal/common/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Database = "assessments"
	cfg.Database.Postgres.User = "scorer"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := minimalConfig()
	applyDefaults(cfg)

	assert.Equal(t, "assessment-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)

	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 20, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)

	assert.Equal(t, 0.5, cfg.Scoring.GapThreshold)
	assert.Equal(t, 5, cfg.Scoring.RankingSize)
	assert.Equal(t, 600, cfg.Scoring.TemplateCacheTTL)
	assert.Equal(t, 30000, cfg.Scoring.Timeout)

	assert.Equal(t, 3600, cfg.Benchmark.Interval)
	assert.Equal(t, 60000, cfg.Benchmark.LockTTL)
	assert.Equal(t, 3, cfg.Benchmark.MaxRetries)
	assert.Equal(t, 1, cfg.Benchmark.MinimumPool)

	assert.Equal(t, "assessment-results", cfg.Search.Index)
	assert.Equal(t, ":9464", cfg.HTTP.MetricsAddress)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestApplyDefaults_DoesNotOverrideConfiguredValues(t *testing.T) {
	cfg := minimalConfig()
	cfg.Scoring.GapThreshold = 0.75
	cfg.Scoring.RankingSize = 10
	cfg.Benchmark.Interval = 600

	applyDefaults(cfg)

	assert.Equal(t, 0.75, cfg.Scoring.GapThreshold)
	assert.Equal(t, 10, cfg.Scoring.RankingSize)
	assert.Equal(t, 600, cfg.Benchmark.Interval)
}

func TestValidateConfig(t *testing.T) {
	cfg := minimalConfig()
	applyDefaults(cfg)
	require.NoError(t, validateConfig(cfg))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database name", func(c *Config) { c.Database.Postgres.Database = "" }},
		{"missing database user", func(c *Config) { c.Database.Postgres.User = "" }},
		{"negative gap threshold", func(c *Config) { c.Scoring.GapThreshold = -0.5 }},
		{"zero ranking size", func(c *Config) { c.Scoring.RankingSize = -1 }},
		{"zero benchmark interval", func(c *Config) { c.Benchmark.Interval = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			applyDefaults(cfg)
			tt.mutate(cfg)

			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db.internal", Port: 5433,
		User: "scorer", Password: "secret",
		Database: "assessments", SSLMode: "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=scorer password=secret dbname=assessments sslmode=require",
		p.GetDSN())
}

func TestElasticsearchConfig_GetURL(t *testing.T) {
	assert.Equal(t, "http://es:9200", ElasticsearchConfig{URL: "http://es:9200"}.GetURL())
	assert.Equal(t, "http://a:9200", ElasticsearchConfig{Addresses: []string{"http://a:9200", "http://b:9200"}}.GetURL())
	assert.Equal(t, "http://es:9200", ElasticsearchConfig{
		URL:       "http://es:9200",
		Addresses: []string{"http://other:9200"},
	}.GetURL())
	assert.Empty(t, ElasticsearchConfig{}.GetURL())
}
