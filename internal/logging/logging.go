package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "rtviewer",
				CallerOffset:    1,
			})
			l.SetLevel(log.InfoLevel)
			singleton = &logger{l}
		})
	return singleton
}

// SetLevel parses a level name ("debug", "info", "warn", "error", "fatal").
// Unknown names leave the current level untouched.
func SetLevel(name string) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		getLogger().Warnf("unknown log level %q, keeping %s", name, getLogger().GetLevel())
		return
	}
	getLogger().SetLevel(lvl)
}

func Debug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func Info(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func Error(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func Fatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
