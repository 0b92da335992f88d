// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to out at the given level. format is
// "json" or "text".
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}

// HCLog returns an hclog logger for the raft library that writes to the
// same output as logger at the matching level
func HCLog(logger *logrus.Logger, name string) hclog.Logger {
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclogLevel(logger.GetLevel()),
		Output:     logger.Out,
		JSONFormat: isJSON,
	})
}

func hclogLevel(level logrus.Level) hclog.Level {
	switch level {
	case logrus.TraceLevel:
		return hclog.Trace
	case logrus.DebugLevel:
		return hclog.Debug
	case logrus.InfoLevel:
		// raft is chatty at info; only surface its warnings
		return hclog.Warn
	case logrus.WarnLevel:
		return hclog.Warn
	default:
		return hclog.Error
	}
}
