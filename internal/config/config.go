// Package config loads the root service configuration from config.toml, an
// optional per-environment overlay, and VITALSCAN_ environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vitalscan/vitalscan/internal/diagnostics"
	"github.com/vitalscan/vitalscan/internal/identity"
	"github.com/vitalscan/vitalscan/pkg/database"
	"github.com/vitalscan/vitalscan/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVitalscanEnv             = "VITALSCAN_ENV"
	EnvVitalscanShutdownTimeout = "VITALSCAN_SHUTDOWN_TIMEOUT"
	EnvVitalscanVersion         = "VITALSCAN_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "VITALSCAN_DB_HOST",
	Port:            "VITALSCAN_DB_PORT",
	Name:            "VITALSCAN_DB_NAME",
	User:            "VITALSCAN_DB_USER",
	Password:        "VITALSCAN_DB_PASSWORD",
	SSLMode:         "VITALSCAN_DB_SSL_MODE",
	MaxOpenConns:    "VITALSCAN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VITALSCAN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VITALSCAN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VITALSCAN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "VITALSCAN_STORAGE_PROVIDER",
	Path:             "VITALSCAN_STORAGE_PATH",
	ContainerName:    "VITALSCAN_STORAGE_CONTAINER_NAME",
	ConnectionString: "VITALSCAN_STORAGE_CONNECTION_STRING",
}

var authEnv = &identity.Env{
	Mode:         "VITALSCAN_AUTH_MODE",
	Cookie:       "VITALSCAN_AUTH_COOKIE",
	Secret:       "VITALSCAN_AUTH_SECRET",
	SubjectClaim: "VITALSCAN_AUTH_SUBJECT_CLAIM",
	Issuer:       "VITALSCAN_AUTH_ISSUER",
	Audience:     "VITALSCAN_AUTH_AUDIENCE",
	Anonymous:    "VITALSCAN_AUTH_ANONYMOUS",
}

var inferenceEnv = &diagnostics.Env{
	BoneFracture: "VITALSCAN_INFERENCE_BONE_FRACTURE",
	ECG:          "VITALSCAN_INFERENCE_ECG",
	BrainMRI:     "VITALSCAN_INFERENCE_BRAIN_MRI",
	ChestXray:    "VITALSCAN_INFERENCE_CHEST_XRAY",
}

// Config is the root configuration for the VitalScan service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Database        database.Config    `toml:"database"`
	Storage         storage.Config     `toml:"storage"`
	Auth            identity.Config    `toml:"auth"`
	Inference       diagnostics.Config `toml:"inference"`
	API             APIConfig          `toml:"api"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
}

// Env returns the VITALSCAN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVitalscanEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Auth.Merge(&overlay.Auth)
	c.Inference.Merge(&overlay.Inference)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Inference.Finalize(inferenceEnv); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVitalscanShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVitalscanVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVitalscanEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
