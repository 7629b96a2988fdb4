package commands

import (
	"os"
	"strings"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s} ▶ %{message}%{color:reset}`,
)

// setupLogging sends the logs of every package to stderr, filtered by the level
// found in STRUCTBIN_LOG_LEVEL, or by defaultLevel.
func setupLogging(defaultLevel logging.Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, stderrFormat)
	leveled := logging.AddModuleLevel(formatted)

	level := defaultLevel
	if name := os.Getenv("STRUCTBIN_LOG_LEVEL"); name != "" {
		if l, err := logging.LogLevel(strings.ToUpper(name)); err == nil {
			level = l
		}
	}
	leveled.SetLevel(level, "")

	logging.SetBackend(leveled)
}
