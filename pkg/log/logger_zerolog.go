// Structured logging backed by zerolog. Implements the same Logger
// interface as the console logger so components never depend on the
// concrete backend.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type ZlLogger struct {
	logger zerolog.Logger
}

// NewZlLogger builds a zerolog-backed logger writing JSON to stderr,
// or human-readable console output when pretty is set.
func NewZlLogger(level string, pretty bool) (*ZlLogger, error) {
	var output io.Writer = os.Stderr
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	logger := zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()
	return &ZlLogger{logger: logger}, nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZlLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *ZlLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *ZlLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *ZlLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}
