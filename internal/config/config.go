// Package config loads service configuration from the environment and league
// settings from TOML files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
)

// Config is populated from environment variables
type Config struct {
	Environment string // development, staging, production

	// Draft store
	DBDriver    string // memory, sqlite, postgres
	SQLiteFile  string
	DatabaseURL string

	// Draft events
	NATSURL      string
	NATSSubject  string
	EmbeddedNATS bool

	// ADP history
	ClickHouseEnabled  bool
	ClickHouseAddr     string
	ClickHouseDB       string
	ClickHouseUser     string
	ClickHousePassword string
	ADPSyncInterval    time.Duration

	// Servers
	HTTPPort   string
	GRPCPort   string
	MCPEnabled bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting for pick submissions
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Player pool
	PlayersFile  string
	RankingsFile string
	CatalogLimit int

	// League
	LeagueFile      string
	StrictTurnOrder bool
}

// Load reads configuration from environment variables with defaults suited to local development
func Load() (*Config, error) {
	env := envOr("ENVIRONMENT", "development")
	dev := env == "development"

	cfg := &Config{
		Environment: env,

		DBDriver:    envOr("DB_DRIVER", "memory"),
		SQLiteFile:  envOr("SQLITE_FILE", "dev.sqlite"),
		DatabaseURL: envOr("DATABASE_URL", ""),

		NATSURL:      envOr("NATS_URL", "nats://localhost:4222"),
		NATSSubject:  envOr("NATS_SUBJECT", "draftassist.events"),
		EmbeddedNATS: envBool("EMBEDDED_NATS", dev),

		ClickHouseEnabled:  envBool("CLICKHOUSE_ENABLED", !dev),
		ClickHouseAddr:     envOr("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:       envOr("CLICKHOUSE_DB", "default"),
		ClickHouseUser:     envOr("CLICKHOUSE_USER", "default"),
		ClickHousePassword: envOr("CLICKHOUSE_PASSWORD", ""),
		ADPSyncInterval:    time.Duration(envInt("ADP_SYNC_INTERVAL_MINUTES", 5)) * time.Minute,

		HTTPPort:   envOr("PORT", "3000"),
		GRPCPort:   envOr("GRPC_PORT", "50051"),
		MCPEnabled: envBool("MCP_ENABLED", true),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		PlayersFile:  envOr("PLAYERS_FILE", "data/players.json"),
		RankingsFile: envOr("RANKINGS_FILE", ""),
		CatalogLimit: envInt("CATALOG_LIMIT", 400),

		LeagueFile:      envOr("LEAGUE_FILE", ""),
		StrictTurnOrder: envBool("STRICT_TURN_ORDER", true),
	}

	switch cfg.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q (valid: memory, sqlite, postgres)", cfg.DBDriver)
	}

	return cfg, nil
}

// IsDevelopment returns true when running locally
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadLeagueSettings reads a TOML league file. Keys missing from the file keep
// their DefaultLeagueSettings value; an empty path returns the defaults.
func LoadLeagueSettings(path string) (models.LeagueSettings, error) {
	settings := models.DefaultLeagueSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read league file: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse league file %s: %w", path, err)
	}
	return settings, nil
}

// EncodeLeagueSettings renders settings as TOML
func EncodeLeagueSettings(s models.LeagueSettings) ([]byte, error) {
	return toml.Marshal(s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
