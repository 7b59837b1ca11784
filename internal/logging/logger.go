package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"reserba/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger from the logging and app config
// sections. Unknown levels fall back to info. The returned closer is non-nil
// only when logging to a file; the caller closes it at shutdown.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, errors.New("logging.file_path is required when logging.output is file")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = file, file
	default:
		return nil, nil, fmt.Errorf("unknown logging output %q", cfg.Output)
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	ctx := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", app.Name).
		Str("environment", app.Environment)
	if app.Version != "" {
		ctx = ctx.Str("version", app.Version)
	}
	logger := ctx.Logger()
	return &logger, closer, nil
}
