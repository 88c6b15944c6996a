package log

import (
	"os"

	"github.com/op/go-logging"
)

var Log = logging.MustGetLogger("")

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{message}`,
)
var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} hostgate ▶ %{message}%{color:reset}`,
)

func UseSyslog() bool {
	env := os.Getenv("HG_LOG_SYSLOG")
	if env != "" {
		return env == "true"
	}
	return false
}

//	SetupLogging installs the process-wide backend and returns the shared logger.
//	HG_LOG_LEVEL overrides defaultLogLevel.
func SetupLogging(prefix string, defaultLogLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		backend = getSyslogBackend(prefix)
	}
	if backend == nil {
		backend = logging.NewLogBackend(os.Stderr, prefix+" ", 0)
		logging.SetFormatter(stderrFormat)
	}
	leveled := logging.AddModuleLevel(backend)
	level, err := ParseLevel(os.Getenv("HG_LOG_LEVEL"))
	if err != nil {
		level = defaultLogLevel
	}
	leveled.SetLevel(level, "")

	logging.SetBackend(leveled)
	return Log
}

//	ParseLevel accepts go-logging level names (CRITICAL..DEBUG) in any case.
func ParseLevel(name string) (level logging.Level, err error) {
	return logging.LogLevel(name)
}
