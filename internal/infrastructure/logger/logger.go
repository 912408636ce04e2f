package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup configures the process-wide zerolog level and returns a logger
// writing structured JSON to stdout.
func Setup(level string) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a default info-level logger.
func Logger() zerolog.Logger {
	return Setup("info")
}
