package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config is the logger configuration, bound from the "log" settings section.
type Config struct {
	// Directory receives per-level log files. Empty disables file output.
	Directory string `mapstructure:"directory" json:"directory" yaml:"directory"`

	// Level is the minimum level (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" yaml:"level" default:"info"`

	// Format is json or console.
	Format string `mapstructure:"format" json:"format" yaml:"format" default:"json"`

	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format" default:"2006/01/02 - 15:04:05"`

	// LogInTerminal also writes to stdout.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal" default:"true"`

	// Rotation, passed to lumberjack.
	MaxAge     int  `mapstructure:"max-age" json:"maxAge" yaml:"max-age" default:"7"`
	MaxSize    int  `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"100"`
	MaxBackups int  `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups" default:"10"`
	Compress   bool `mapstructure:"compress" json:"compress" yaml:"compress" default:"true"`

	ShowCaller bool `mapstructure:"show-caller" json:"showCaller" yaml:"show-caller"`
}

// DefaultConfig returns a terminal-only JSON logger at info level.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		Format:        "json",
		TimeFormat:    "2006/01/02 - 15:04:05",
		LogInTerminal: true,
		MaxAge:        7,
		MaxSize:       100,
		MaxBackups:    10,
		Compress:      true,
	}
}

// ZapLevel converts the configured level, falling back to info.
func (c Config) ZapLevel() zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
