// Package rlog provides the resolver's diagnostic side channel (spec
// section 4.10 / spec.md section 7): logging never participates in a
// render's return value, it only reports warnings and debug detail to the
// operator.
//
// Grounded on the teacher's internal/output/log.go: a package-global
// *charmbracelet/log.Logger configured by SetupLogging, with thin
// Debug/Info/Warn/Error wrappers.
package rlog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the package-global logger instance.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
}

// SetupLogging configures Logger's verbosity. verbose also turns on
// timestamps and caller reporting, matching the teacher's behavior.
func SetupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		ReportCaller:    verbose,
	})
}

// Debug logs a debug-level message.
func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info-level message.
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning. verbose_warnings-gated events (default
// substitution, suppressed not-found) route here (spec section 4.1).
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error-level message. The resolver still returns the error
// to its caller; this is a diagnostic echo, not the error path itself.
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}
