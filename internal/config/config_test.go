package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig_LoadsYAML(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: "9090"
  log_level: debug
provider:
  name: Local
  code: local
  url: http://localhost:11434/v1
  model: test-model
store:
  path: /tmp/test.db
`)
	t.Setenv("STUDYAPP_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "local", cfg.Provider.Code)
	assert.Equal(t, "test-model", cfg.Provider.Model)
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
}

func TestNewConfig_EnvOverridesYAML(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: "9090"
provider:
  model: from-yaml
`)
	t.Setenv("STUDYAPP_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("PROVIDER_MODEL", "from-env")
	t.Setenv("PROVIDER_API_KEY", "secret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Provider.Model)
	assert.Equal(t, "secret", cfg.Provider.APIKey)
}

func TestNewConfig_Defaults(t *testing.T) {
	path := writeTempConfig(t, "{}\n")
	t.Setenv("STUDYAPP_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "studyapp.db", cfg.Store.Path)
	assert.Equal(t, "studyapp-backend", cfg.OpenTelemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.OpenTelemetry.SamplingRate)
	assert.Equal(t, DefaultMaxTokens, cfg.Provider.MaxTokens)
}

func TestNewConfig_CORSOriginsFromEnv(t *testing.T) {
	path := writeTempConfig(t, "{}\n")
	t.Setenv("STUDYAPP_CONFIG_FILE", path)
	t.Setenv("SERVER_CORS_ORIGINS", "http://localhost:3000, https://study.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:3000", "https://study.example.com"}, cfg.Server.CORSOrigins)
}
