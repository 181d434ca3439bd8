package hazmat

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config expresses the knobs of the command-line tool and the defaults it
// hands to the rsa and ocsp packages.
type Config struct {
	RSA RSAConfig `yaml:"rsa"`
	Log LogConfig `yaml:"log"`
}

// RSAConfig holds key generation defaults.
type RSAConfig struct {
	// DefaultKeySize is used when no size is given on the command line.
	DefaultKeySize int `yaml:"default_key_size"`

	// DefaultPublicExponent is used when no exponent is given.
	DefaultPublicExponent int `yaml:"default_public_exponent"`

	// MinKeySize raises the generation floor above the library minimum.
	// Zero keeps the library minimum.
	MinKeySize int `yaml:"min_key_size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		RSA: RSAConfig{
			DefaultKeySize:        2048,
			DefaultPublicExponent: 65537,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. The path must not
// escape the working directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	absPath, err := SecurePath(path)
	if err != nil {
		return cfg, fmt.Errorf("secure path: %w", err)
	}
	data, err := os.ReadFile(absPath) // #nosec G304 -- absPath validated by SecurePath
	if err != nil {
		return cfg, fmt.Errorf("read file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate performs basic sanity checks without touching the filesystem.
func (c Config) Validate() error {
	if c.RSA.DefaultKeySize <= 0 {
		return errors.New("rsa.default_key_size must be positive")
	}
	if c.RSA.MinKeySize < 0 {
		return errors.New("rsa.min_key_size must not be negative")
	}
	if c.RSA.MinKeySize > 0 && c.RSA.DefaultKeySize < c.RSA.MinKeySize {
		return fmt.Errorf("rsa.default_key_size %d is below rsa.min_key_size %d", c.RSA.DefaultKeySize, c.RSA.MinKeySize)
	}
	if c.RSA.DefaultPublicExponent < 3 || c.RSA.DefaultPublicExponent%2 == 0 {
		return fmt.Errorf("rsa.default_public_exponent %d must be odd and at least 3", c.RSA.DefaultPublicExponent)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// SlogLevel maps Level to a slog.Level. An empty level means info.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Level)
	}
}

// SecurePath validates that a file path doesn't escape the working directory.
func SecurePath(path string) (string, error) {
	clean := filepath.Clean(path)
	absPath, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	base, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	rel, err := filepath.Rel(base, absPath)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes working directory", path)
	}
	return absPath, nil
}
