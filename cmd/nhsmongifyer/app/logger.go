package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration
// layered over the LOG_* environment.
// Log level precedence (highest to lowest):
//  1. --log-level flag (explicit always wins)
//  2. LOG_LEVEL environment variable
//  3. -v/--verbose flag (shortcut for debug)
//  4. -q/--quiet flag (shortcut for warn)
//  5. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)

	logConfig := logging.ConfigFromEnv()
	logConfig.Level = level
	if config.LogFormat != "" {
		logConfig.Format = config.LogFormat
	}
	if config.LogOutput != "" {
		logConfig.Output = config.LogOutput
	}
	logConfig.NoColor = logConfig.NoColor || config.NoColor
	logConfig.AddCaller = logConfig.AddCaller || level == "debug" || level == "trace"

	return logging.NewLoggerFromConfig(logConfig)
}

// determineLogLevel determines the log level using clear precedence rules.
func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		validated := validateLogLevel(config.LogLevel)
		if validated != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, validated)
		}
		return validated
	}

	if config.Verbose && config.Quiet {
		// quiet is the more restrictive of the two
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}

	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}

	return "info"
}

// validateLogLevel returns level when it is known and "info" otherwise.
func validateLogLevel(level string) string {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[level] {
		return level
	}

	return "info"
}
