// Package logging builds the logrus loggers used by the command and the
// streaming runner.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv forces debug level when set to a true value.
const DebugEnv = "WDRC_DEBUG"

func debugFromEnv() bool {
	debug, err := strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		return false
	}

	return debug
}

// New returns a logger writing to w at the named level. An empty level
// means info. WDRC_DEBUG overrides the level with debug.
func New(w io.Writer, level string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if level == "" {
		level = "info"
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	if debugFromEnv() && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}

	l.SetLevel(lvl)

	return l, nil
}
