package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: demo\n"))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, StoreMemory, cfg.Router.Store)
	assert.Equal(t, 250, cfg.Router.MatchTimeout)
	assert.Equal(t, "task-router-commands", cfg.Router.JournalIndex)
	assert.Equal(t, "data/tasks.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.APIs.OpenRouter.BaseURL)
	assert.Equal(t, 2, cfg.APIs.OpenRouter.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, `
workers:
  process-chat-message:
    enabled: true
`))
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "process-chat-message")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)

	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "not-configured").MaxJobsActive)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("ROUTER_STORE", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", "/tmp/override.db")
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("MODEL_NAME", "anthropic/claude-3-haiku")

	cfg, err := LoadFromFile(writeConfig(t, `
router:
  store: memory
apis:
  openrouter:
    model: ${MODEL_NAME}
`))
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Router.Store)
	assert.Equal(t, "/tmp/override.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "from-env", cfg.APIs.OpenRouter.APIKey)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.APIs.OpenRouter.Model)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown store", "router:\n  store: mongo\n", "router.store must be one of"},
		{"postgres without host", "router:\n  store: postgres\n", "database.postgres.host is required"},
		{"camunda without broker", "camunda:\n  enabled: true\n", "camunda.broker_address is required"},
		{"journal without addresses", "router:\n  journal_enabled: true\n", "elasticsearch.addresses is required"},
		{"cache without redis", "apis:\n  openrouter:\n    cache_ttl: 30\n", "database.redis.address is required"},
		{"temperature out of range", "apis:\n  openrouter:\n    temperature: 3\n", "temperature must be between 0 and 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
