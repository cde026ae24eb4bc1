package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"NEW_RELIC_API_KEY", "NEW_RELIC_ACCOUNT_ID", "NEW_RELIC_ENDPOINT", "NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaultsWhenDefaultFileMissing(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "https://api.newrelic.com/graphql", cfg.NewRelic.Endpoint)
	assert.Equal(t, 1000, cfg.Sync.MaxPages)
	assert.True(t, cfg.Sync.ParallelFetch)
	assert.False(t, cfg.GraphEnabled())
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)

	_, err = LoadConfig("", filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}

func TestLoadConfigYAMLAndEnvOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
newrelic:
  account_id: 11
  api_key: from-file
sync:
  max_pages: 5
  parallel_fetch: false
output:
  dir: out
neo4j:
  uri: bolt://localhost:7687
`), 0o644))
	envPath := filepath.Join(dir, "creds.env")
	require.NoError(t, os.WriteFile(envPath, []byte("NEW_RELIC_API_KEY=from-dotenv\nNEW_RELIC_ACCOUNT_ID=22\n"), 0o644))
	t.Setenv("NEW_RELIC_ACCOUNT_ID", "33")

	cfg, err := LoadConfig(path, envPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.NewRelic.APIKey)
	assert.Equal(t, 33, cfg.NewRelic.AccountID, "process env wins over .env")
	assert.Equal(t, 5, cfg.Sync.MaxPages)
	assert.False(t, cfg.Sync.ParallelFetch)
	assert.Equal(t, 3, cfg.Sync.Retry.Attempts, "unset keys keep defaults")
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.GraphEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigBadAccountID(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("NEW_RELIC_ACCOUNT_ID", "abc")

	_, err := LoadConfig("", "")
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "NEW_RELIC_ACCOUNT_ID", ce.Field)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NewRelic.Endpoint = "ftp://example"
	cfg.Sync.MaxPages = 0

	err := cfg.Validate()
	require.Error(t, err)

	var fields []string
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	for _, e := range joined.Unwrap() {
		var ce *ConfigurationError
		require.ErrorAs(t, e, &ce)
		fields = append(fields, ce.Field)
	}
	assert.Equal(t, []string{"newrelic.api_key", "newrelic.account_id", "newrelic.endpoint", "sync.max_pages"}, fields)
}
