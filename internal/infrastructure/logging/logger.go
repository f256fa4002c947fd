package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Development gets a console writer at
// debug level; everything else gets JSON at info. level overrides either.
func Init(development bool, level string) {
	Setup(os.Stderr, development, level)
}

func Setup(out io.Writer, development bool, level string) {
	zerolog.SetGlobalLevel(parseLevel(development, level))
	zerolog.TimeFieldFormat = time.RFC3339

	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(development bool, level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	if development {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
