package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

const format = `%{color}%{time:2006-01-02T15:04:05.999Z-07:00} %{level:.3s} %{module} %{shortfunc}%{color:reset} %{message}`

var setup sync.Once

// NewLogger returns a named logger. The backend and level are configured once
// per process from NEWSBOARD_LOG_LEVEL (debug, info, warning, error).
func NewLogger(name string) *logging.Logger {
	setup.Do(func() {
		backend := logging.NewLogBackend(os.Stderr, "", 0)
		formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(format))
		leveled := logging.AddModuleLevel(formatted)
		leveled.SetLevel(level(os.Getenv("NEWSBOARD_LOG_LEVEL")), "")
		logging.SetBackend(leveled)
	})
	return logging.MustGetLogger(name)
}

func level(name string) logging.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logging.DEBUG
	case "warning", "warn":
		return logging.WARNING
	case "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}
