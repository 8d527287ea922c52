package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/meltforce/repplan/internal/engine"
	"github.com/meltforce/repplan/internal/schedule"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Backend   BackendConfig   `yaml:"backend"`
	Engine    EngineConfig    `yaml:"engine"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	ScoreLog  ScoreLogConfig  `yaml:"scorelog"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// BackendConfig points the engine at a remote planning backend. When URL is
// empty the engine uses the local database.
type BackendConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type EngineConfig struct {
	MaxSessionsPerDay int `yaml:"max_sessions_per_day"`
	WeeksToShow       int `yaml:"weeks_to_show"`
	WeeksBefore       int `yaml:"weeks_before"`
	HistoryDays       int `yaml:"history_days"`
	HistoryLimit      int `yaml:"history_limit"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ScoreLogConfig locates the SQLite score log. An empty Dir disables it.
type ScoreLogConfig struct {
	Dir string `yaml:"dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Remote reports whether the engine talks to a remote planning backend.
func (c *Config) Remote() bool {
	return c.Backend.URL != ""
}

// EngineOptions converts the engine section into engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Schedule: schedule.Options{
			MaxSessionsPerDay: c.Engine.MaxSessionsPerDay,
			WeeksToShow:       c.Engine.WeeksToShow,
			WeeksBefore:       c.Engine.WeeksBefore,
		},
		HistoryDays:  c.Engine.HistoryDays,
		HistoryLimit: c.Engine.HistoryLimit,
	}
}

func defaults() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			MaxSessionsPerDay: opts.Schedule.MaxSessionsPerDay,
			WeeksToShow:       opts.Schedule.WeeksToShow,
			WeeksBefore:       opts.Schedule.WeeksBefore,
			HistoryDays:       opts.HistoryDays,
			HistoryLimit:      opts.HistoryLimit,
		},
		Tailscale: TailscaleConfig{Hostname: "repplan", StateDir: "tsnet-state"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Unset engine and tailscale fields keep their defaults.
// Env vars use the prefix REPPLAN_ and underscore-separated paths:
//
//	REPPLAN_SERVER_HOST, REPPLAN_SERVER_PORT,
//	REPPLAN_DB_HOST, REPPLAN_DB_PORT, REPPLAN_DB_NAME,
//	REPPLAN_DB_USER, REPPLAN_DB_PASSWORD, REPPLAN_DB_SSLMODE,
//	REPPLAN_AUTH_API_KEY, REPPLAN_BACKEND_URL, REPPLAN_BACKEND_API_KEY,
//	REPPLAN_ENGINE_MAX_SESSIONS_PER_DAY, REPPLAN_TAILSCALE_ENABLED,
//	REPPLAN_SCORELOG_DIR
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("REPPLAN_SERVER_HOST", &cfg.Server.Host)
	setInt("REPPLAN_SERVER_PORT", &cfg.Server.Port)
	setString("REPPLAN_DB_HOST", &cfg.Database.Host)
	setInt("REPPLAN_DB_PORT", &cfg.Database.Port)
	setString("REPPLAN_DB_NAME", &cfg.Database.Name)
	setString("REPPLAN_DB_USER", &cfg.Database.User)
	setString("REPPLAN_DB_PASSWORD", &cfg.Database.Password)
	setString("REPPLAN_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("REPPLAN_AUTH_API_KEY", &cfg.Auth.APIKey)
	setString("REPPLAN_BACKEND_URL", &cfg.Backend.URL)
	setString("REPPLAN_BACKEND_API_KEY", &cfg.Backend.APIKey)
	setInt("REPPLAN_ENGINE_MAX_SESSIONS_PER_DAY", &cfg.Engine.MaxSessionsPerDay)
	setString("REPPLAN_SCORELOG_DIR", &cfg.ScoreLog.Dir)
	if v := os.Getenv("REPPLAN_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Remote() {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL)
		}
	} else {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}

	opts := c.EngineOptions()
	if err := opts.Schedule.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if opts.HistoryDays <= 0 || opts.HistoryLimit <= 0 {
		return fmt.Errorf("engine.history_days and engine.history_limit must be positive")
	}
	return nil
}
