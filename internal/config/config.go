package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds settings for the map server.
type ServerConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Generation  GenerationConfig  `yaml:"generation"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Database    DatabaseConfig    `yaml:"database"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Address             string `yaml:"address"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// ReadTimeout returns the read timeout as a duration.
func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (c HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// GenerationConfig bounds the map sizes clients may request.
type GenerationConfig struct {
	MinWidth      int `yaml:"min_width"`
	MaxWidth      int `yaml:"max_width"`
	MinHeight     int `yaml:"min_height"`
	MaxHeight     int `yaml:"max_height"`
	DefaultWidth  int `yaml:"default_width"`
	DefaultHeight int `yaml:"default_height"`

	// TerrainFile is an optional YAML palette used when the database has none.
	TerrainFile string `yaml:"terrain_file"`
}

// RateLimitConfig holds lockout settings for failed API key attempts.
type RateLimitConfig struct {
	// MaxAttempts is the number of failures allowed before lockout.
	MaxAttempts int `yaml:"max_attempts"`

	// LockoutSeconds is the first lockout duration; it doubles on each
	// further lockout up to MaxLockoutSeconds.
	LockoutSeconds    int `yaml:"lockout_seconds"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig limits concurrent WebSocket connections.
// 0 means unlimited.
type ConnectionsConfig struct {
	MaxPerIP int `yaml:"max_per_ip"`
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins lists origins allowed to connect. Empty enforces
	// same-origin; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the largest request message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DatabaseConfig selects and configures the map store.
type DatabaseConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Database               string `yaml:"database"`
	SSLMode                string `yaml:"ssl_mode"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// DefaultConfig returns a ServerConfig with the stock bounds and limits.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPConfig{
			Address:             ":8080",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
		},
		Generation: GenerationConfig{
			MinWidth:      5,
			MaxWidth:      30,
			MinHeight:     5,
			MaxHeight:     20,
			DefaultWidth:  15,
			DefaultHeight: 10,
			TerrainFile:   "data/terrains.yaml",
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 5,
			MaxTotal: 200,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:       5,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/hexmap.db",
			Postgres: PostgresConfig{
				Host:                   "localhost",
				Port:                   5432,
				SSLMode:                "disable",
				MaxOpenConns:           25,
				MaxIdleConns:           5,
				ConnMaxLifetimeMinutes: 5,
			},
		},
	}
}

// LoadConfig loads server configuration from a YAML file. A missing file
// yields the defaults; a file that cannot be parsed yields the defaults and
// the error.
func LoadConfig(path string) (*ServerConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ValidateSize checks a requested map size against the configured bounds.
// Returns a message for the client, or empty string if valid.
func (c *GenerationConfig) ValidateSize(width, height int) string {
	if width < c.MinWidth || width > c.MaxWidth {
		return fmt.Sprintf("Width must be between %d and %d.", c.MinWidth, c.MaxWidth)
	}
	if height < c.MinHeight || height > c.MaxHeight {
		return fmt.Sprintf("Height must be between %d and %d.", c.MinHeight, c.MaxHeight)
	}
	return ""
}

// IsOriginAllowed checks the Origin header of a WebSocket upgrade.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin compares the host part of origin with the request host.
// A missing Origin header comes from non-browser clients and is allowed.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
