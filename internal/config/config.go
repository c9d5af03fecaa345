// ABOUTME: Configuration loading and parsing for the spotter backend
// ABOUTME: Supports YAML files with environment variable expansion plus env-only overrides

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete spotter backend configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Env selects the runtime environment ("development" or "production").
	// Development responses include stack traces on internal errors.
	Env string `yaml:"env"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTSecret signs and verifies identity tokens.
	JWTSecret string `yaml:"jwt_secret"`
	// AdminUIDs lists the user ids granted admin access. Loaded once at
	// startup; changing membership requires a restart.
	AdminUIDs []string `yaml:"admin_uids"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// envOverrides mirrors the subset of Config that can be set through the
// process environment. Values set here take precedence over the YAML file.
type envOverrides struct {
	HTTPAddr  string `env:"SPOTTER_HTTP_ADDR"`
	DBPath    string `env:"SPOTTER_DB_PATH"`
	JWTSecret string `env:"SPOTTER_JWT_SECRET"`
	AdminUIDs string `env:"ADMIN_UIDS"`
	Env       string `env:"SPOTTER_ENV"`
	LogLevel  string `env:"SPOTTER_LOG_LEVEL"`
	LogFormat string `env:"SPOTTER_LOG_FORMAT"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded, and
// SPOTTER_*/ADMIN_UIDS environment variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config entirely from the process environment, for
// deployments without a config file.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "localhost:8080"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if ov.HTTPAddr != "" {
		cfg.Server.HTTPAddr = ov.HTTPAddr
	}
	if ov.DBPath != "" {
		cfg.Database.Path = ov.DBPath
	}
	if ov.JWTSecret != "" {
		cfg.Auth.JWTSecret = ov.JWTSecret
	}
	if ov.AdminUIDs != "" {
		cfg.Auth.AdminUIDs = SplitUIDs(ov.AdminUIDs)
	}
	if ov.Env != "" {
		cfg.Env = ov.Env
	}
	if ov.LogLevel != "" {
		cfg.Logging.Level = ov.LogLevel
	}
	if ov.LogFormat != "" {
		cfg.Logging.Format = ov.LogFormat
	}
	return nil
}

// SplitUIDs parses a comma-separated uid list, trimming whitespace and
// dropping empty entries.
func SplitUIDs(s string) []string {
	var uids []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			uids = append(uids, part)
		}
	}
	return uids
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

// IsDevelopment reports whether the process runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
