package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thruflo/snapview/internal/auth"
	"github.com/thruflo/snapview/internal/stage"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultTitlePrefix = "EOS"
	DefaultInterval    = 500 * time.Millisecond
	DefaultSourceFile  = "progress.json"
	DefaultServerPort  = 8375
	DefaultLogLevel    = "warn"
	configDir          = ".snapview"
	configFile         = "config.yaml"
)

// logLevels are matched case-insensitively, as logging.ParseLevel does.
var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// DefaultServerConfig returns a ServerConfig with sensible default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: DefaultServerPort,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		TitlePrefix: DefaultTitlePrefix,
		Interval:    DefaultInterval,
		ConfirmExit: true,
		Source: Source{
			File: DefaultSourceFile,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Path returns the config file path under basePath.
func Path(basePath string) string {
	return filepath.Join(basePath, configDir, configFile)
}

// LoadConfig reads and parses .snapview/config.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	data, err := os.ReadFile(Path(basePath))
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig writes cfg to .snapview/config.yaml under basePath.
func SaveConfig(basePath string, cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := Path(basePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.TitlePrefix == "" {
		return ValidationError{Field: "title_prefix", Message: "required field is empty"}
	}
	if cfg.Interval <= 0 {
		return ValidationError{Field: "interval", Message: "must be positive"}
	}
	if cfg.Source.File == "" && cfg.Source.URL == "" {
		return ValidationError{Field: "source", Message: "file or url is required"}
	}
	if cfg.Source.Timeout < 0 {
		return ValidationError{Field: "source.timeout", Message: "must not be negative"}
	}
	if cfg.Source.Watch && cfg.Source.URL != "" {
		return ValidationError{Field: "source.watch", Message: "only applies to file sources"}
	}
	for _, name := range cfg.TUI.Stages {
		if _, ok := stage.Parse(name); !ok {
			return ValidationError{Field: "tui.stages", Message: fmt.Sprintf("unknown stage %q", name)}
		}
	}
	if !logLevels[strings.ToLower(cfg.Logging.Level)] {
		return ValidationError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	}

	// Validate server config if present
	if cfg.Server != nil {
		if err := ValidateServerConfig(cfg.Server); err != nil {
			return err
		}
	}

	return nil
}

// ValidateServerConfig checks that server config values are valid.
func ValidateServerConfig(cfg *ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if cfg.PasswordHash != "" {
		if err := auth.Check(cfg.PasswordHash); err != nil {
			return ValidationError{Field: "server.password_hash", Message: err.Error()}
		}
	}
	return nil
}

// SourceFile resolves the progress file relative to basePath.
func (c *Config) SourceFile(basePath string) string {
	if c.Source.File == "" || filepath.IsAbs(c.Source.File) {
		return c.Source.File
	}
	return filepath.Join(basePath, c.Source.File)
}

// VisibleStages returns the stages the terminal surface should show.
func (c *Config) VisibleStages() []stage.Stage {
	if len(c.TUI.Stages) == 0 {
		return stage.All
	}
	out := make([]stage.Stage, 0, len(c.TUI.Stages))
	for _, name := range c.TUI.Stages {
		if s, ok := stage.Parse(name); ok {
			out = append(out, s)
		}
	}
	return out
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
