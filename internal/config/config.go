package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Supported values for DatabaseDriver.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int    `yaml:"port"`
	DatabaseDriver string `yaml:"database_driver"`
	DatabasePath   string `yaml:"database_path"`
	MongoURI       string `yaml:"mongo_uri"`
	MongoDatabase  string `yaml:"mongo_database"`

	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"-"`
	BcryptCost int           `yaml:"bcrypt_cost"`

	UploadDir           string        `yaml:"upload_dir"`
	UploadMaxBytes      int64         `yaml:"upload_max_bytes"`
	UploadSweepSchedule string        `yaml:"upload_sweep_schedule"` // cron spec, empty disables
	UploadSweepGrace    time.Duration `yaml:"-"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "console" or "json"

	// Raw duration strings for YAML unmarshaling
	TokenTTLRaw         string `yaml:"token_ttl"`
	UploadSweepGraceRaw string `yaml:"upload_sweep_grace"`
}

func defaults() *Config {
	return &Config{
		ServerPort:          5000,
		DatabaseDriver:      DriverSQLite,
		DatabasePath:        "./uniwork.db",
		MongoDatabase:       "uniwork",
		TokenTTLRaw:         "1h",
		BcryptCost:          10,
		UploadDir:           "uploads/images",
		UploadMaxBytes:      500000,
		UploadSweepSchedule: "@hourly",
		UploadSweepGraceRaw: "1h",
		CORSAllowedOrigins:  []string{"*"},
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment variable value,
// or an empty string when it is not set.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.ServerPort, err = getEnvInt("PORT", cfg.ServerPort); err != nil {
		return err
	}
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTLRaw = getEnv("TOKEN_TTL", cfg.TokenTTLRaw)
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return err
	}

	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	maxBytes, err := getEnvInt("UPLOAD_MAX_BYTES", int(cfg.UploadMaxBytes))
	if err != nil {
		return err
	}
	cfg.UploadMaxBytes = int64(maxBytes)
	cfg.UploadSweepSchedule = getEnv("UPLOAD_SWEEP_SCHEDULE", cfg.UploadSweepSchedule)
	cfg.UploadSweepGraceRaw = getEnv("UPLOAD_SWEEP_GRACE", cfg.UploadSweepGraceRaw)

	if origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	return nil
}

func parseDurations(cfg *Config) error {
	var err error
	if cfg.TokenTTL, err = time.ParseDuration(cfg.TokenTTLRaw); err != nil {
		return fmt.Errorf("token_ttl: %w", err)
	}
	if cfg.UploadSweepGrace, err = time.ParseDuration(cfg.UploadSweepGraceRaw); err != nil {
		return fmt.Errorf("upload_sweep_grace: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.ServerPort))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("database_path is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo_uri is required for the mongo driver"))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo_database is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database_driver %q", c.DatabaseDriver))
	}

	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("jwt_secret must be at least 32 bytes"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir is required"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("upload_max_bytes must be positive"))
	}
	if c.UploadSweepSchedule != "" {
		if _, err := cron.ParseStandard(c.UploadSweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("upload_sweep_schedule: %w", err))
		}
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
