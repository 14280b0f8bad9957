// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

// DefaultMaxUploadBytes is the request and download size cap (16 MiB).
const DefaultMaxUploadBytes int64 = 16 << 20

// Version is the server version, overridden at build time with -ldflags "-X".
var Version = "dev"

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Inbox     InboxConfig
	Fetch     FetchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	PublicURL      string        // Base URL used for artifact links (default: http://localhost:{port})
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
	MaxUploadBytes int64         // Request body cap (default: 16 MiB)
}

// RateLimitConfig holds inbound per-client rate limiting.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// StorageConfig controls where output artifacts go and how long they live.
type StorageConfig struct {
	DataPath    string        // Base directory (default: ~/affectlab)
	OutputPath  string        // Local artifact directory (default: {data}/output)
	Backend     string        // local or s3
	Format      string        // xlsx or csv
	ArtifactTTL time.Duration // Expiry of generated files (default: 24h)

	S3Bucket string
	S3Prefix string
	S3Region string
	S3URLTTL time.Duration // Presigned URL lifetime (default: 1h)
	// S3Endpoint points the client at an S3-compatible service such as MinIO.
	S3Endpoint string
}

// InboxConfig holds the optional drop-folder configuration.
type InboxConfig struct {
	// Path is watched for new spreadsheets when non-empty.
	Path string
}

// FetchConfig holds remote source download settings.
type FetchConfig struct {
	Timeout time.Duration
}

// DatabasePath returns the location of the artifact registry.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataPath, "affectlab.db")
}

// LoadConfig loads configuration from the process arguments.
// See Load for precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("affectlab", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL for artifact links")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated CORS origins (default: *)")
	maxUpload := fs.String("max-upload-bytes", "", "Maximum upload size in bytes (default: 16 MiB)")

	// Rate limit flags
	ratePerMinute := fs.String("rate-limit", "", "Requests per minute per client (default: 60)")
	rateBurst := fs.String("rate-burst", "", "Burst size per client (default: 20)")

	// Storage flags
	dataPath := fs.String("data-path", "", "Base path for application data")
	outputPath := fs.String("output-path", "", "Directory for generated artifacts")
	backend := fs.String("storage-backend", "", "Artifact storage backend (local, s3)")
	format := fs.String("artifact-format", "", "Artifact file format (xlsx, csv)")
	artifactTTL := fs.String("artifact-ttl", "", "Artifact lifetime (default: 24h)")
	s3Bucket := fs.String("s3-bucket", "", "S3 bucket for artifacts")
	s3Prefix := fs.String("s3-prefix", "", "S3 key prefix for artifacts")
	s3URLTTL := fs.String("s3-url-ttl", "", "Presigned URL lifetime (default: 1h)")
	s3Endpoint := fs.String("s3-endpoint", "", "S3-compatible endpoint URL")

	inboxPath := fs.String("inbox-path", "", "Directory watched for new spreadsheets")
	fetchTimeout := fs.String("fetch-timeout", "", "Remote file download timeout (default: 30s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists. gotenv never overrides variables already set.
	_ = gotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PublicURL:      getConfigValue(*publicURL, "PUBLIC_URL", ""),
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
			MaxUploadBytes: int64(getIntConfigValue(*maxUpload, "MAX_UPLOAD_BYTES", int(DefaultMaxUploadBytes))),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getIntConfigValue(*ratePerMinute, "RATE_LIMIT_PER_MINUTE", 60),
			Burst:     getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 20),
		},
		Storage: StorageConfig{
			DataPath:   getConfigValue(*dataPath, "DATA_PATH", ""),
			OutputPath: getConfigValue(*outputPath, "OUTPUT_PATH", ""),
			Backend:    strings.ToLower(getConfigValue(*backend, "STORAGE_BACKEND", BackendLocal)),
			Format:     strings.ToLower(getConfigValue(*format, "ARTIFACT_FORMAT", "xlsx")),
			S3Bucket:   getConfigValue(*s3Bucket, "S3_BUCKET", ""),
			S3Prefix:   getConfigValue(*s3Prefix, "S3_PREFIX", ""),
			S3Region:   getConfigValue("", "AWS_REGION", ""),
			S3Endpoint: getConfigValue(*s3Endpoint, "S3_ENDPOINT", ""),
		},
		Inbox: InboxConfig{
			Path: getConfigValue(*inboxPath, "INBOX_PATH", ""),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Storage.ArtifactTTL, err = getDurationConfigValue(*artifactTTL, "ARTIFACT_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.Storage.S3URLTTL, err = getDurationConfigValue(*s3URLTTL, "S3_URL_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.Fetch.Timeout, err = getDurationConfigValue(*fetchTimeout, "FETCH_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost:" + cfg.Server.Port
	}
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Storage.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("invalid artifact format: %s (must be xlsx or csv)", c.Storage.Format)
	}

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or s3)", c.Storage.Backend)
	}

	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if c.Storage.ArtifactTTL <= 0 {
		return errors.New("artifact TTL must be positive")
	}
	if c.Inbox.Path != "" && c.Inbox.Path == c.Storage.OutputPath {
		return errors.New("inbox path must differ from output path")
	}

	return nil
}

// expandPaths resolves the data, output and inbox directories.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(homeDir, "affectlab"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	c.Storage.OutputPath, err = expandPath(c.Storage.OutputPath, filepath.Join(c.Storage.DataPath, "output"))
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	// Empty inbox disables the watcher.
	c.Inbox.Path, err = expandPath(c.Inbox.Path, "")
	if err != nil {
		return fmt.Errorf("invalid inbox path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
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

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
