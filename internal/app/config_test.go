package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infcfg "github.com/yungbote/interview-backend/internal/inference/config"
)

var configEnv = []string{
	"TEK_CONFIG_PATH", "LOG_MODE", "TEK_ENV", "TEK_HTTP_ADDR", "TEK_CORS_ORIGINS",
	"DB_DRIVER", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD",
	"POSTGRES_NAME", "POSTGRES_SSLMODE", "SQLITE_PATH", "REDIS_ADDR",
	"ENGINE_TYPE", "ENGINE_MODEL", "OPENAI_BASE_URL", "GEMINI_API_KEY", "OPENAI_API_KEY",
	"JWT_SECRET_KEY", "INTERVIEW_TURN_TIMEOUT", "INTERVIEW_REPORT_TIMEOUT", "INTERVIEW_CATALOG_PATH",
	"PERSIST_WORKERS", "PERSIST_QUEUE_SIZE", "METRICS_ADDR",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.LogMode)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "tek:", cfg.Redis.Prefix)
	assert.Equal(t, infcfg.TypeMock, cfg.Engine.Type)
	assert.Equal(t, 30*time.Second, cfg.Interview.TurnTimeout.Duration)
	assert.Equal(t, 60*time.Second, cfg.Interview.ReportTimeout.Duration)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
log_mode: production
http:
  addr: ":9000"
  cors_origins: ["https://a.example"]
db:
  driver: postgres
  host: db.internal
engine:
  type: oai_http
  base_url: "http://llm.local/"
  model: small
interview:
  turn_timeout: 45s
persist:
  workers: 8
`)
	t.Setenv("TEK_HTTP_ADDR", ":7000")
	t.Setenv("TEK_CORS_ORIGINS", "https://b.example, https://c.example")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("INTERVIEW_REPORT_TIMEOUT", "90")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.LogMode)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, infcfg.TypeOAIHTTP, cfg.Engine.Type)
	assert.Equal(t, "http://llm.local", cfg.Engine.BaseURL)
	assert.Equal(t, "sk-test", cfg.Engine.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Interview.TurnTimeout.Duration)
	assert.Equal(t, 90*time.Second, cfg.Interview.ReportTimeout.Duration)
	assert.Equal(t, 8, cfg.Persist.Workers)
}

func TestLoadConfigGeminiKeySelectsEngine(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, infcfg.TypeGemini, cfg.Engine.Type)
	assert.Equal(t, "g-key", cfg.Engine.APIKey)
	assert.Equal(t, infcfg.DefaultGeminiModel, cfg.Engine.Model)
}

func TestLoadConfigErrors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "http: [unterminated"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "engine:\n  type: carrier-pigeon\n"))
	assert.Error(t, err)
}
