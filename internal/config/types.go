package config

import "time"

// Source selects where the pipeline's progress counters are read from.
// URL takes precedence over File when both are set.
type Source struct {
	File    string        `yaml:"file,omitempty"`
	URL     string        `yaml:"url,omitempty"`
	Watch   bool          `yaml:"watch,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Action binds a pipeline trigger to a local command or an endpoint.
type Action struct {
	Command []string `yaml:"command,omitempty"`
	URL     string   `yaml:"url,omitempty"`
	Method  string   `yaml:"method,omitempty"`
}

// ServerConfig configures the web status page.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

// TUIConfig configures the terminal surface.
type TUIConfig struct {
	// Stages limits the stage rows shown. Empty means all of them.
	Stages []string `yaml:"stages,omitempty"`
}

// LoggingConfig sets the initial log level.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// Config represents the .snapview/config.yaml file.
type Config struct {
	TitlePrefix string            `yaml:"title_prefix"`
	Interval    time.Duration     `yaml:"interval"`
	ConfirmExit bool              `yaml:"confirm_exit"`
	Source      Source            `yaml:"source"`
	Actions     map[string]Action `yaml:"actions,omitempty"`
	Server      *ServerConfig     `yaml:"server,omitempty"`
	TUI         TUIConfig         `yaml:"tui,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}
