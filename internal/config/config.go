// Package config handles simplifier configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/qem/internal/logger"
	"github.com/Faultbox/qem/pkg/qem"
)

// Config holds all settings of the meshsimplify tool.
type Config struct {
	Simplify SimplifyConfig `yaml:"simplify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SimplifyConfig holds the engine options plus CLI-only targeting.
type SimplifyConfig struct {
	qem.Options `yaml:",inline"`
	// TargetRatio is the fraction of input vertices to keep when
	// target_count is 0.
	TargetRatio float64 `yaml:"target_ratio"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simplify: SimplifyConfig{
			Options:     qem.DefaultOptions(),
			TargetRatio: 0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	err := c.Simplify.Options.Validate()
	if c.Simplify.TargetRatio < 0 || c.Simplify.TargetRatio > 1 {
		err = multierr.Append(err, fmt.Errorf("target_ratio must be in [0, 1], got %g", c.Simplify.TargetRatio))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return err
}

// Resolve returns the engine options for a mesh with the given number of
// vertices, turning target_ratio into a vertex count when target_count is
// unset.
func (s SimplifyConfig) Resolve(vertices int) qem.Options {
	opts := s.Options
	if opts.TargetCount == 0 && s.TargetRatio > 0 {
		opts.TargetCount = int(float64(vertices) * s.TargetRatio)
	}
	return opts
}

// LoggerOptions converts the logging section for logger.Init.
func (l LoggingConfig) LoggerOptions() logger.Options {
	opts := logger.Options{
		Level:   l.Level,
		Format:  l.Format,
		Console: true,
	}
	if l.LogFile != "" {
		opts.File = logger.DefaultFileConfig(l.LogFile)
	}
	return opts
}
