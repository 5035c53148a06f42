// Package output holds kerf's terminal presentation: the shared logger and
// the styles used for build reports.
package output

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is shared by every component. SetupLogging replaces it.
var Logger = newLogger(os.Stderr, false)

// newLogger logs at info level, or at debug level with timestamps when
// verbose.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: verbose,
		TimeFormat:      time.TimeOnly,
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// SetupLogging points Logger at stderr.
func SetupLogging(verbose bool) { SetupLoggingTo(os.Stderr, verbose) }

// SetupLoggingTo points Logger at w.
func SetupLoggingTo(w io.Writer, verbose bool) { Logger = newLogger(w, verbose) }

// Component returns a child of Logger whose lines carry name, such as
// "build" or "sink", as prefix. Loggers taken before SetupLogging keep the
// old destination.
func Component(name string) *log.Logger {
	return Logger.WithPrefix(name)
}
