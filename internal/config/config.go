package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"nhl_wp/pipeline/internal/features"
)

// Config holds all application configuration
type Config struct {
	// NHL stats API
	StatsAPIBaseURL string        `envconfig:"STATSAPI_BASE_URL" default:"https://statsapi.web.nhl.com/api/v1"`
	StatsAPITimeout time.Duration `envconfig:"STATSAPI_TIMEOUT" default:"30s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"nhl_wp"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"nhl_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Feature engineering
	TeamWindows       string  `envconfig:"TEAM_WINDOWS" default:"3,7,14,41,82"`
	GoalieWindows     string  `envconfig:"GOALIE_WINDOWS" default:"3,7,14,41,82"`
	WinPctWindows     string  `envconfig:"WIN_PCT_WINDOWS" default:"10,20,41,82"`
	GoalieRestCeiling float64 `envconfig:"GOALIE_REST_CEILING" default:"30"`
	TeamRestCeiling   float64 `envconfig:"TEAM_REST_CEILING" default:"7"`
	GoalieDedupPolicy string  `envconfig:"GOALIE_DEDUP_POLICY" default:"last"`
	DiffMissingFill   string  `envconfig:"DIFF_MISSING_FILL" default:"zero"`

	// Historical build range, seasons in 20192020 form
	FirstSeason int `envconfig:"FIRST_SEASON" default:"2010"`
	LastSeason  int `envconfig:"LAST_SEASON" default:"2020"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialBuildOnBoot bool   `envconfig:"INITIAL_BUILD_ON_BOOT" default:"true"`
	NightlyRebuildCron string `envconfig:"NIGHTLY_REBUILD_CRON" default:"0 4 * * *"`
	UpdatePollInterval int    `envconfig:"UPDATE_POLL_INTERVAL" default:"3600"` // seconds

	// Cache TTL (in seconds)
	CacheTTLFeatures int `envconfig:"CACHE_TTL_FEATURES" default:"3600"` // 1 hour

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}
	if _, err := c.Features(); err != nil {
		return err
	}
	if c.FirstSeason > c.LastSeason {
		return fmt.Errorf("FIRST_SEASON must not be after LAST_SEASON")
	}
	return nil
}

// Features builds the feature-engineering configuration from the raw
// environment values.
func (c *Config) Features() (features.Config, error) {
	fc := features.DefaultConfig()

	var err error
	if fc.TeamWindows, err = parseWindows(c.TeamWindows); err != nil {
		return fc, fmt.Errorf("TEAM_WINDOWS: %w", err)
	}
	if fc.GoalieWindows, err = parseWindows(c.GoalieWindows); err != nil {
		return fc, fmt.Errorf("GOALIE_WINDOWS: %w", err)
	}
	if fc.WinPctWindows, err = parseWindows(c.WinPctWindows); err != nil {
		return fc, fmt.Errorf("WIN_PCT_WINDOWS: %w", err)
	}

	fc.GoalieRestCeiling = c.GoalieRestCeiling
	fc.TeamRestCeiling = c.TeamRestCeiling
	fc.DedupPolicy = c.GoalieDedupPolicy

	switch c.DiffMissingFill {
	case "zero":
		fc.DiffZeroFill = true
	case "propagate":
		fc.DiffZeroFill = false
	default:
		return fc, fmt.Errorf("DIFF_MISSING_FILL must be zero or propagate, got %q", c.DiffMissingFill)
	}

	if err := fc.Validate(); err != nil {
		return fc, err
	}
	return fc, nil
}

// parseWindows parses a comma-separated window list, e.g. "3,7,14,41,82".
func parseWindows(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q", p)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
