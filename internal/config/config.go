package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/auth"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	Discord    DiscordConfig
	Slack      SlackConfig
	OAuth      OAuthConfig
	Moderation ModerationConfig
	Detector   DetectorConfig
	Atmosphere AtmosphereConfig
	Operators  []auth.Operator
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps no state
	// across restarts and exists for local development.
	Driver string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DiscordConfig holds the chat-platform integration settings.
type DiscordConfig struct {
	BotToken          string
	GuildID           string
	RestrictionRoleID string
	AlertChannelID    string
}

// SlackConfig holds the optional secondary staff-alert channel.
type SlackConfig struct {
	BotToken       string
	AlertChannelID string
}

// OAuthConfig holds the optional operator OAuth login settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ModerationConfig tunes the state machine.
type ModerationConfig struct {
	// ActionTimeout bounds platform side-effect calls made while the
	// per-member section is held.
	ActionTimeout time.Duration
}

// DetectorConfig tunes the evasion heuristic.
type DetectorConfig struct {
	MaxEditDistance int
	MinNameLength   int
}

// AtmosphereConfig points at the external atmosphere-text service.
type AtmosphereConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("WARDEN_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("WARDEN_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("WARDEN_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("WARDEN_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("WARDEN_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("WARDEN_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("WARDEN_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	actionTimeout, err := getEnvDuration("WARDEN_ACTION_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	atmosphereTimeout, err := getEnvDuration("WARDEN_ATMOSPHERE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxEditDistance, err := getEnvInt("WARDEN_DETECTOR_MAX_EDIT_DISTANCE", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	minNameLength, err := getEnvInt("WARDEN_DETECTOR_MIN_NAME_LENGTH", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	operators, err := parseOperators(os.Getenv("WARDEN_OPERATORS"))
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("WARDEN_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Storage: StorageConfig{
			Driver: getEnv("WARDEN_STORAGE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("WARDEN_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("WARDEN_DB_USER", "warden"),
			Password: getEnv("WARDEN_DB_PASSWORD", ""),
			DBName:   getEnv("WARDEN_DB_NAME", "warden_dev"),
			SSLMode:  getEnv("WARDEN_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("WARDEN_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("WARDEN_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("WARDEN_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("WARDEN_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Discord: DiscordConfig{
			BotToken:          getEnv("WARDEN_DISCORD_BOT_TOKEN", ""),
			GuildID:           getEnv("WARDEN_DISCORD_GUILD_ID", ""),
			RestrictionRoleID: getEnv("WARDEN_DISCORD_RESTRICTION_ROLE_ID", ""),
			AlertChannelID:    getEnv("WARDEN_DISCORD_ALERT_CHANNEL_ID", ""),
		},
		Slack: SlackConfig{
			BotToken:       getEnv("WARDEN_SLACK_BOT_TOKEN", ""),
			AlertChannelID: getEnv("WARDEN_SLACK_ALERT_CHANNEL_ID", ""),
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("WARDEN_OAUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("WARDEN_OAUTH_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("WARDEN_OAUTH_REDIRECT_URL", ""),
		},
		Moderation: ModerationConfig{
			ActionTimeout: actionTimeout,
		},
		Detector: DetectorConfig{
			MaxEditDistance: maxEditDistance,
			MinNameLength:   minNameLength,
		},
		Atmosphere: AtmosphereConfig{
			BaseURL: getEnv("WARDEN_ATMOSPHERE_URL", ""),
			Timeout: atmosphereTimeout,
		},
		Operators: operators,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("WARDEN_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("WARDEN_JWT_SECRET must be at least 32 characters")
	}

	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("WARDEN_STORAGE_DRIVER must be postgres or memory, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "memory" {
		log.Warn().Msg("WARDEN_STORAGE_DRIVER=memory keeps no audit log across restarts; development only")
	}

	if c.Database.SSLMode == "disable" && c.Storage.Driver == "postgres" {
		log.Warn().Msg("WARDEN_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if len(c.Operators) == 0 {
		log.Warn().Msg("WARDEN_OPERATORS is empty; the operator API will reject all logins")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("WARDEN_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("WARDEN_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("WARDEN_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("WARDEN_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("WARDEN_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("WARDEN_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Moderation.ActionTimeout <= 0 {
		return fmt.Errorf("WARDEN_ACTION_TIMEOUT must be positive, got %s", c.Moderation.ActionTimeout)
	}
	if c.Detector.MaxEditDistance < 0 {
		return fmt.Errorf("WARDEN_DETECTOR_MAX_EDIT_DISTANCE must be >= 0, got %d", c.Detector.MaxEditDistance)
	}
	if c.Detector.MinNameLength < 1 {
		return fmt.Errorf("WARDEN_DETECTOR_MIN_NAME_LENGTH must be >= 1, got %d", c.Detector.MinNameLength)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// parseOperators parses WARDEN_OPERATORS. Each entry is
// "name:role:passwordHash[:externalID]", entries comma-separated. The
// password hash is the output of auth.HashPassword, which never contains
// a colon.
func parseOperators(raw string) ([]auth.Operator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var ops []auth.Operator
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("parsing WARDEN_OPERATORS entry %q: want name:role:hash[:externalID]", entry)
		}

		op := auth.Operator{
			Name:         parts[0],
			Role:         parts[1],
			PasswordHash: parts[2],
		}
		if op.Name == "" || op.Role == "" || op.PasswordHash == "" {
			return nil, fmt.Errorf("parsing WARDEN_OPERATORS entry %q: empty field", entry)
		}
		if len(parts) == 4 {
			op.ExternalID = parts[3]
		}

		ops = append(ops, op)
	}

	return ops, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
