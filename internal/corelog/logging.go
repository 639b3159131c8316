// Package corelog provides the structured logger shared by every package
// in the filter chain runtime.
package corelog

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func get() *logger {
	once.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "filterchain",
		})
		l.SetLevel(log.InfoLevel)
		singleton = &logger{l}
	})
	return singleton
}

// SetLevel changes the package-wide log level. Valid values mirror
// charmbracelet/log's level names (debug, info, warn, error, fatal).
func SetLevel(level log.Level) {
	get().SetLevel(level)
}

func Debug(msg string, args ...interface{}) {
	get().Debug(msg, args...)
}

func Info(msg string, args ...interface{}) {
	get().Info(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	get().Warn(msg, args...)
}

func Error(msg string, args ...interface{}) {
	get().Error(msg, args...)
}

// With returns a derived logger carrying the given key/value pairs on every
// subsequent call, e.g. a chain instance ID for correlating log lines.
func With(keyvals ...interface{}) *log.Logger {
	return get().With(keyvals...)
}
