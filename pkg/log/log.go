// Package log builds the zerolog loggers used by the booster.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tarstars/forust/pkg/errors"
)

// LevelEnv names the environment variable read by Default.
const LevelEnv = "FORUST_LOG_LEVEL"

// DefaultLevel is used when LevelEnv is unset.
const DefaultLevel = "warn"

// Standard field keys.
const (
	ComponentKey = "component"
	IterationKey = "iteration"
	SamplesKey   = "samples"
	FeaturesKey  = "features"
	LossKey      = "loss"
	LeavesKey    = "leaves"
	DurationKey  = "duration"
)

var (
	defaultOnce   sync.Once
	defaultLogger zerolog.Logger
)

// ParseLevel converts a level name into a zerolog level.
// Unknown names are an error rather than a silent fallback.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, errors.InvalidInputf("invalid log level %q", level)
	}
}

// New returns a logger writing JSON lines to w at the given level.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Default returns the process wide logger. It writes to stderr at the level
// named by FORUST_LOG_LEVEL; an unparsable value falls back to DefaultLevel
// and is reported once on the returned logger.
func Default() zerolog.Logger {
	defaultOnce.Do(func() {
		level, ok := os.LookupEnv(LevelEnv)
		if !ok {
			level = DefaultLevel
		}
		logger, err := New(os.Stderr, level)
		if err != nil {
			logger, _ = New(os.Stderr, DefaultLevel)
			logger.Warn().Err(err).Str("env", LevelEnv).Msg("ignoring log level")
		}
		defaultLogger = logger
	})
	return defaultLogger
}

// Component returns a child of l tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(ComponentKey, name).Logger()
}
