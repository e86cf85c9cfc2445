// Package config loads server configuration from built-in defaults, an
// optional TOML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sadhana-path/backend/internal/progression"
)

const devJWTSecret = "sadhana-dev-signing-key"

// Config holds all server configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Auth        AuthConfig        `toml:"auth"`
	Logging     LoggingConfig     `toml:"logging"`
	Workers     WorkersConfig     `toml:"workers"`
	Reflection  ReflectionConfig  `toml:"reflection"`
	Progression ProgressionConfig `toml:"progression"`
}

type ServerConfig struct {
	Port            string   `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// Dev relaxes secret requirements and switches to human-readable logs.
	Dev bool `toml:"dev"`
}

type DatabaseConfig struct {
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Name         string `toml:"name"`
	SSLMode      string `toml:"sslmode"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type WorkersConfig struct {
	Enabled             bool     `toml:"enabled"`
	RankInterval        Duration `toml:"rank_interval"`
	StreakCheckInterval Duration `toml:"streak_check_interval"`
}

type ReflectionConfig struct {
	// Provider is "anthropic" or "mock".
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	CacheSize int    `toml:"cache_size"`
}

// ProgressionConfig overrides the built-in level ladder and quest list.
// Empty slices keep the defaults.
type ProgressionConfig struct {
	Levels []LevelEntry                  `toml:"levels"`
	Quests []progression.QuestDefinition `toml:"quests"`
}

type LevelEntry struct {
	Name      string `toml:"name"`
	Threshold int64  `toml:"threshold"`
}

// Duration is a time.Duration that decodes from strings such as "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "sadhana_user",
			Password:     "sadhana_password",
			Name:         "sadhana",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			TokenTTL: Duration{72 * time.Hour},
		},
		Logging: LoggingConfig{Level: "info"},
		Workers: WorkersConfig{
			Enabled:             true,
			RankInterval:        Duration{15 * time.Minute},
			StreakCheckInterval: Duration{1 * time.Hour},
		},
		Reflection: ReflectionConfig{
			Provider:  "mock",
			Model:     "claude-sonnet-4-5",
			CacheSize: 64,
		},
	}
}

// Load builds a Config. If path is empty, SADHANA_CONFIG is consulted; a
// missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SADHANA_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Server.Dev && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	c.Server.Dev = getEnvBool("DEV_MODE", c.Server.Dev)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Workers.Enabled = getEnvBool("WORKERS_ENABLED", c.Workers.Enabled)

	c.Reflection.Provider = getEnv("REFLECTION_PROVIDER", c.Reflection.Provider)
	if getEnvBool("MOCK_GENERATOR", false) {
		c.Reflection.Provider = "mock"
	}
	c.Reflection.Model = getEnv("ANTHROPIC_MODEL", c.Reflection.Model)
	c.Reflection.APIKey = getEnv("ANTHROPIC_API_KEY", c.Reflection.APIKey)
}

// Validate reports every configuration problem found.
func (c Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Workers.RankInterval.Duration <= 0 || c.Workers.StreakCheckInterval.Duration <= 0 {
		errs = append(errs, errors.New("worker intervals must be positive"))
	}

	if c.Reflection.CacheSize <= 0 {
		errs = append(errs, errors.New("reflection.cache_size must be positive"))
	}
	switch c.Reflection.Provider {
	case "mock":
	case "anthropic":
		if c.Reflection.APIKey == "" {
			errs = append(errs, errors.New("reflection.api_key (ANTHROPIC_API_KEY) is required for the anthropic provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown reflection provider %q", c.Reflection.Provider))
	}

	if _, err := c.Ladder(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Quests(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Ladder returns the configured level ladder, or the default one.
func (c Config) Ladder() (progression.Ladder, error) {
	if len(c.Progression.Levels) == 0 {
		return progression.DefaultLadder(), nil
	}
	levels := make([]progression.LevelDefinition, len(c.Progression.Levels))
	for i, e := range c.Progression.Levels {
		levels[i] = progression.LevelDefinition{Name: e.Name, Threshold: e.Threshold}
	}
	return progression.NewLadder(levels)
}

// Quests returns the configured quest list, or the default one.
func (c Config) Quests() ([]progression.QuestDefinition, error) {
	if len(c.Progression.Quests) == 0 {
		return progression.DefaultQuests(), nil
	}
	if err := progression.ValidateQuests(c.Progression.Quests); err != nil {
		return nil, err
	}
	quests := make([]progression.QuestDefinition, len(c.Progression.Quests))
	copy(quests, c.Progression.Quests)
	return quests, nil
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
