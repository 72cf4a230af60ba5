// Package logging builds the logrus logger shared by the command and the
// editor.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLevel = "warn"
	// Subsys is the field naming the part of the program a log line came from.
	Subsys = "subsys"
)

// New returns a logger writing plain text to out at the given level.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return logger, nil
}

// ParseLevel accepts logrus level names; an empty string means DefaultLevel.
func ParseLevel(level string) (logrus.Level, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// WithSubsys tags every entry of logger with the subsystem name.
func WithSubsys(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField(Subsys, name)
}
