// Package config loads server configuration from defaults, an optional YAML
// file, LARDER_* environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/larderapp/larder-server/internal/logger"
)

// ConfigPathEnvVar names the environment variable pointing at a YAML config file.
const ConfigPathEnvVar = "LARDER_CONFIG"

// DefaultConfigPaths are searched in order when LARDER_CONFIG is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"/etc/larder/config.yaml",
}

// Config holds the application configuration.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Logger  LoggerConfig  `koanf:"logger"`
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Auth    AuthConfig    `koanf:"auth"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `koanf:"level"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`

	// RequestsPerMinute is the per-IP budget for the whole API. Zero disables it.
	RequestsPerMinute int `koanf:"requests_per_minute"`
	// AuthRequestsPerMinute and AuthBurst throttle the register and token endpoints.
	AuthRequestsPerMinute int `koanf:"auth_requests_per_minute"`
	AuthBurst             int `koanf:"auth_burst"`

	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	DataDir      string `koanf:"data_dir"`
	DatabasePath string `koanf:"database_path"`
	MediaDir     string `koanf:"media_dir"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key, loaded or generated in the data dir at startup.
	AccessTokenKey      []byte        `koanf:"-"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

func defaultConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:                  "8080",
			ReadTimeout:           15 * time.Second,
			WriteTimeout:          30 * time.Second,
			IdleTimeout:           60 * time.Second,
			CORSOrigins:           []string{"*"},
			RequestsPerMinute:     600,
			AuthRequestsPerMinute: 20,
			AuthBurst:             10,
			MaxUploadBytes:        10 << 20,
		},
		Auth: AuthConfig{
			AccessTokenDuration: 24 * time.Hour,
		},
	}
}

// envKeys maps environment variables onto koanf paths. Unlisted variables are ignored.
var envKeys = map[string]string{
	"LARDER_ENV":                             "app.environment",
	"LARDER_LOG_LEVEL":                       "logger.level",
	"LARDER_SERVER_PORT":                     "server.port",
	"LARDER_SERVER_READ_TIMEOUT":             "server.read_timeout",
	"LARDER_SERVER_WRITE_TIMEOUT":            "server.write_timeout",
	"LARDER_SERVER_IDLE_TIMEOUT":             "server.idle_timeout",
	"LARDER_CORS_ORIGINS":                    "server.cors_origins",
	"LARDER_SERVER_REQUESTS_PER_MINUTE":      "server.requests_per_minute",
	"LARDER_SERVER_AUTH_REQUESTS_PER_MINUTE": "server.auth_requests_per_minute",
	"LARDER_SERVER_AUTH_BURST":               "server.auth_burst",
	"LARDER_MAX_UPLOAD_BYTES":                "server.max_upload_bytes",
	"LARDER_DATA_DIR":                        "storage.data_dir",
	"LARDER_DATABASE_PATH":                   "storage.database_path",
	"LARDER_MEDIA_DIR":                       "storage.media_dir",
	"LARDER_ACCESS_TOKEN_DURATION":           "auth.access_token_duration",
}

// sliceConfigPaths are parsed from comma-separated strings when they come from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence, highest first:
//  1. Command-line flags in args.
//  2. LARDER_* environment variables.
//  3. YAML config file (LARDER_CONFIG, -config, or a default path).
//  4. Built-in defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("larder", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	flagPaths := map[string]*string{
		"app.environment":            fs.String("env", "", "Environment (development, staging, production)"),
		"logger.level":               fs.String("log-level", "", "Log level (debug, info, warn, error)"),
		"server.port":                fs.String("port", "", "Server port (default: 8080)"),
		"storage.data_dir":           fs.String("data-dir", "", "Directory for the database, media and auth key"),
		"storage.database_path":      fs.String("database-path", "", "SQLite database file (default: {data-dir}/larder.db)"),
		"storage.media_dir":          fs.String("media-dir", "", "Uploaded media directory (default: {data-dir}/media)"),
		"auth.access_token_duration": fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(*configPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("LARDER_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for path, value := range flagPaths {
		if *value == "" {
			continue
		}
		if err := k.Set(path, *value); err != nil {
			return nil, fmt.Errorf("set %s from flag: %w", path, err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("environment is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !logger.ValidLevel(c.Logger.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("invalid access token duration %s", c.Auth.AccessTokenDuration)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}

	if c.Storage.DataDir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	return nil
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// findConfigFile returns the first existing config file: the explicit path,
// then LARDER_CONFIG, then DefaultConfigPaths.
func findConfigFile(explicit string) string {
	candidates := make([]string, 0, len(DefaultConfigPaths)+2)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, DefaultConfigPaths...)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	return envKeys[key]
}

// processSliceFields splits comma-separated string values for slice-typed paths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePaths resolves the data dir (default ~/Larder) and derives
// the database and media locations from it when they are unset.
func (c *Config) expandStoragePaths() error {
	defaultDataDir := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultDataDir = filepath.Join(homeDir, "Larder")
	}

	dataDir, err := expandPath(c.Storage.DataDir, defaultDataDir)
	if err != nil {
		return err
	}
	c.Storage.DataDir = dataDir

	dbPath, err := expandPath(c.Storage.DatabasePath, filepath.Join(dataDir, "larder.db"))
	if err != nil {
		return err
	}
	c.Storage.DatabasePath = dbPath

	mediaDir, err := expandPath(c.Storage.MediaDir, filepath.Join(dataDir, "media"))
	if err != nil {
		return err
	}
	c.Storage.MediaDir = mediaDir

	return nil
}
