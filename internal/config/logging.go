package config

import (
	"log/slog"
	"os"

	"github.com/raphaelgruber/docchunk-go/internal/events"
	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: JSON records to a log file for
// debugging, plus a bridge that forwards Info/Warn/Error records onto the
// stderr event stream so diagnostics never break the NDJSON protocol.
// Returns the logger and a cleanup function to close the file.
func SetupLogger(logFile string, level slog.Level, emitter *events.Emitter) (*slog.Logger, func() error) {
	bridge := events.NewLogHandler(emitter, level)

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to the event bridge only.
		logger := slog.New(bridge)
		logger.Warn("failed to open log file", "error", err, "file", logFile)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(slogmulti.Fanout(fileHandler, bridge))

	cleanup := func() error {
		return file.Close()
	}

	return logger, cleanup
}
