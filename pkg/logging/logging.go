package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var logFile *os.File

/*
Init configures the default charmbracelet logger. Logs go to stderr,
or are appended to logFilePath when one is given, so they never mix
with the answers the commands print on stdout.
*/
func Init(level, logFilePath string) error {
	var out io.Writer = os.Stderr

	if logFilePath != "" {
		var err error

		logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)

		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
		}

		out = logFile
	}

	parsed, err := log.ParseLevel(level)

	if err != nil {
		parsed = log.InfoLevel
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           parsed,
		ReportTimestamp: logFilePath != "",
		ReportCaller:    parsed == log.DebugLevel,
	})

	log.SetDefault(logger)
	log.Debug("logging initialized", "level", parsed, "file", logFilePath)

	return nil
}

// Close closes the log file.
func Close() {
	if logFile != nil {
		log.Debug("closing log file")
		logFile.Close()
		logFile = nil
	}
}
