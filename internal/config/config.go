// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Transport names
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Defaults
const (
	DefaultPort      = 9240
	DefaultHTTPPath  = "/mcp"
	DefaultLogLevel  = "info"
	DefaultRateLimit = 20
	MemoryDBPath     = ":memory:"
)

// DefaultDBPath is the database location used when ACME_DB_PATH is unset
var DefaultDBPath = filepath.Join(os.Getenv("HOME"), ".acme-orders", "products.db")

// Config holds runtime settings
type Config struct {
	DBPath      string
	Transport   string
	Port        int
	HTTPPath    string
	LogLevel    string
	LogFormat   string
	DevIdentity bool
	UserInfo    string
	SeedCatalog bool
	RateLimit   float64
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	switch c.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportHTTP, TransportStdio))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.HTTPPath, "/") {
		errs = append(errs, fmt.Errorf("http path %q must start with /", c.HTTPPath))
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit))
	}
	return errors.Join(errs...)
}

// Load reads configuration from envFile (when present), the process
// environment and command-line args. Flags override the environment.
func Load(envFile string, args []string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("acme-orders", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport: http or stdio")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from lookup, applying defaults for unset keys
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		DBPath:    get("ACME_DB_PATH", DefaultDBPath),
		Transport: strings.ToLower(get("ACME_TRANSPORT", TransportHTTP)),
		HTTPPath:  get("ACME_HTTP_PATH", DefaultHTTPPath),
		LogLevel:  strings.ToLower(get("LOGLEVEL", DefaultLogLevel)),
		LogFormat: strings.ToLower(get("ACME_LOG_FORMAT", "")),
		UserInfo:  get("ACME_USER_INFO", ""),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("PORT", strconv.Itoa(DefaultPort))); err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	if cfg.DevIdentity, err = strconv.ParseBool(get("ACME_DEV_IDENTITY", "false")); err != nil {
		return nil, fmt.Errorf("ACME_DEV_IDENTITY: %w", err)
	}
	if cfg.SeedCatalog, err = strconv.ParseBool(get("ACME_SEED_CATALOG", "true")); err != nil {
		return nil, fmt.Errorf("ACME_SEED_CATALOG: %w", err)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(get("ACME_RATE_LIMIT", strconv.Itoa(DefaultRateLimit)), 64); err != nil {
		return nil, fmt.Errorf("ACME_RATE_LIMIT: %w", err)
	}
	return cfg, nil
}

// EnsureDBDir creates the parent directory of a file-backed database
func (c *Config) EnsureDBDir() error {
	if c.DBPath == MemoryDBPath || strings.HasPrefix(c.DBPath, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
