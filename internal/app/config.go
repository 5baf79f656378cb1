package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/interview-backend/internal/data/db"
	infcfg "github.com/yungbote/interview-backend/internal/inference/config"
	"github.com/yungbote/interview-backend/internal/platform/envutil"
)

const defaultConfigPath = "config/config.yaml"

type HTTPConfig struct {
	Addr            string          `yaml:"addr"`
	CORSOrigins     []string        `yaml:"cors_origins"`
	ShutdownTimeout infcfg.Duration `yaml:"shutdown_timeout"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type AuthConfig struct {
	// JWTSecret enables bearer-token owner resolution when set.
	JWTSecret string `yaml:"jwt_secret"`
}

type InterviewConfig struct {
	TurnTimeout        infcfg.Duration `yaml:"turn_timeout"`
	ReportTimeout      infcfg.Duration `yaml:"report_timeout"`
	SuggestionsTimeout infcfg.Duration `yaml:"suggestions_timeout"`
	KeyCheckTimeout    infcfg.Duration `yaml:"key_check_timeout"`
	ArticleTimeout     infcfg.Duration `yaml:"article_timeout"`
	// CatalogPath replaces the embedded topic catalog when set.
	CatalogPath string `yaml:"catalog_path"`
}

type PersistConfig struct {
	Workers    int             `yaml:"workers"`
	QueueSize  int             `yaml:"queue_size"`
	JobTimeout infcfg.Duration `yaml:"job_timeout"`
}

type MetricsConfig struct {
	// Addr serves /metrics on a separate listener when set.
	Addr string `yaml:"addr"`
}

type Config struct {
	LogMode     string              `yaml:"log_mode"`
	Environment string              `yaml:"environment"`
	HTTP        HTTPConfig          `yaml:"http"`
	DB          db.Config           `yaml:"db"`
	Redis       RedisConfig         `yaml:"redis"`
	Engine      infcfg.EngineConfig `yaml:"engine"`
	Auth        AuthConfig          `yaml:"auth"`
	Interview   InterviewConfig     `yaml:"interview"`
	Persist     PersistConfig       `yaml:"persist"`
	Metrics     MetricsConfig       `yaml:"metrics"`
}

// LoadConfig reads the YAML file at path (TEK_CONFIG_PATH, then
// config/config.yaml, when empty), applies environment overrides and fills
// defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = envutil.String("TEK_CONFIG_PATH", "")
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigPath
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Engine.Normalize(); err != nil {
		return Config{}, fmt.Errorf("engine config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Environment = envutil.String("TEK_ENV", c.Environment)
	c.HTTP.Addr = envutil.String("TEK_HTTP_ADDR", c.HTTP.Addr)
	if v := envutil.String("TEK_CORS_ORIGINS", ""); v != "" {
		c.HTTP.CORSOrigins = splitCSV(v)
	}

	c.DB.Driver = envutil.String("DB_DRIVER", c.DB.Driver)
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", c.DB.SSLMode)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)

	c.Engine.Type = envutil.String("ENGINE_TYPE", c.Engine.Type)
	c.Engine.Model = envutil.String("ENGINE_MODEL", c.Engine.Model)
	c.Engine.BaseURL = envutil.String("OPENAI_BASE_URL", c.Engine.BaseURL)
	gemini := envutil.String("GEMINI_API_KEY", "")
	openai := envutil.String("OPENAI_API_KEY", "")
	if c.Engine.Type == "" && gemini != "" {
		c.Engine.Type = infcfg.TypeGemini
	}
	switch strings.ToLower(c.Engine.Type) {
	case infcfg.TypeGemini:
		if gemini != "" {
			c.Engine.APIKey = gemini
		}
	case infcfg.TypeOAIHTTP, "openai_http":
		if openai != "" {
			c.Engine.APIKey = openai
		}
	}

	c.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecret)

	c.Interview.TurnTimeout.Duration = envutil.Duration("INTERVIEW_TURN_TIMEOUT", c.Interview.TurnTimeout.Duration)
	c.Interview.ReportTimeout.Duration = envutil.Duration("INTERVIEW_REPORT_TIMEOUT", c.Interview.ReportTimeout.Duration)
	c.Interview.CatalogPath = envutil.String("INTERVIEW_CATALOG_PATH", c.Interview.CatalogPath)

	c.Persist.Workers = envutil.Int("PERSIST_WORKERS", c.Persist.Workers)
	c.Persist.QueueSize = envutil.Int("PERSIST_QUEUE_SIZE", c.Persist.QueueSize)

	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)
}

func (c *Config) applyDefaults() {
	if c.LogMode == "" {
		c.LogMode = "development"
	}
	if c.Environment == "" {
		c.Environment = "local"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout.Duration <= 0 {
		c.HTTP.ShutdownTimeout.Duration = 15 * time.Second
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "tek:"
	}
	if c.Interview.TurnTimeout.Duration <= 0 {
		c.Interview.TurnTimeout.Duration = 30 * time.Second
	}
	if c.Interview.ReportTimeout.Duration <= 0 {
		c.Interview.ReportTimeout.Duration = 60 * time.Second
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
