package logging

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

var logFile *os.File

// Init routes the default logger to a file. Used by the serve command;
// library packages call the package-level charmbracelet logger and inherit
// whatever the process set up.
func Init(logFilePath string) error {
	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	log.SetOutput(logFile)
	log.SetReportTimestamp(true)
	log.SetReportCaller(true)
	log.Info("logging initialized", "path", logFilePath)
	return nil
}

// Close closes the log file.
func Close() {
	if logFile != nil {
		log.Info("closing log file")
		logFile.Close()
	}
}
