// =============================================================================
// Bulk PAYE - Logging
// =============================================================================
//
// Builds the logrus logger shared by the CLI and the pipeline packages.
// Components take a logrus.FieldLogger so tests can pass a discarding logger.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logger.
//
// PARAMETERS:
//   - level:  "debug", "info", "warn" or "error". Empty means "info".
//   - format: "json" or "text". Empty means "text".
//   - out:    destination; nil means stdout.
//
// RETURNS:
//   - The configured logger.
//   - An error if the level or format is not recognised.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()

	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// library callers that do not care about logs.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// LogError logs err with the standard module/func/context fields.
func LogError(logger logrus.FieldLogger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
