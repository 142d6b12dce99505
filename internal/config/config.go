// Package config loads service configuration from YAML and environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	pkgcrypto "github.com/karlsjo/sustainlog/internal/crypto"
)

// Config holds all runtime settings. The encryption and signing keys are
// read-only after startup and are never persisted alongside the data.
type Config struct {
	Addr        string `koanf:"addr"`
	DatabaseDSN string `koanf:"database_dsn"`

	// EncryptionKey is the hex-encoded 32-byte key for claim text at rest.
	EncryptionKey string `koanf:"encryption_key"`
	// JWTKey is the HS256 key the external auth system signs owner tokens with.
	JWTKey string `koanf:"jwt_key"`

	// NotaryURL is the full settlement endpoint, e.g.
	// http://localhost:8002/call-express.
	NotaryURL         string        `koanf:"notary_url"`
	NotaryTimeout     time.Duration `koanf:"notary_timeout"`
	NotaryMaxAttempts int           `koanf:"notary_max_attempts"`
	WorkerInterval    time.Duration `koanf:"worker_interval"`

	CORSOrigins []string `koanf:"cors_origins"`

	// MaxUploadBytes bounds the optional attachment size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		NotaryTimeout:     15 * time.Second,
		NotaryMaxAttempts: 5,
		WorkerInterval:    30 * time.Second,
		CORSOrigins:       []string{"http://localhost:3000"},
		MaxUploadBytes:    10 << 20,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SUSTAINLOG_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// SUSTAINLOG_DATABASE_DSN -> database_dsn, etc.
	if err := k.Load(env.Provider("SUSTAINLOG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SUSTAINLOG_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required")
	}
	if c.JWTKey == "" {
		return fmt.Errorf("jwt_key is required")
	}
	if c.NotaryURL == "" {
		return fmt.Errorf("notary_url is required")
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	if c.NotaryMaxAttempts <= 0 {
		return fmt.Errorf("notary_max_attempts must be positive")
	}
	if c.WorkerInterval <= 0 {
		return fmt.Errorf("worker_interval must be positive")
	}
	return nil
}

// Key decodes the hex encryption key and checks its length.
func (c *Config) Key() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not valid hex: %w", err)
	}
	if len(key) != pkgcrypto.KeyLen {
		return nil, fmt.Errorf("encryption_key must be %d bytes, got %d", pkgcrypto.KeyLen, len(key))
	}
	return key, nil
}
