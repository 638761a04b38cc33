package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	logger.Info().Fields(fields).Msg(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	logger.Error().Fields(fields).Msg(msg)
}
