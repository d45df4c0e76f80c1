package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// #region console
// NewConsoleLogger returns a timestamped logger writing to w at the named
// level ("debug", "info", "warn", "error").
func NewConsoleLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	}), nil
}

// #endregion console
