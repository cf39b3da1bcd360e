package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// FilenameFormat is the daily log file name; %s is replaced with the date
const FilenameFormat = "fitcoach-%s.log"

// Global variable to track the rotating writer for proper cleanup
var activeRotatingWriter *DailyRotatingWriter

// SetupLogging logs to the console and to a daily file under logDir,
// keeping the newest keep files (0 keeps all)
func SetupLogging(logDir string, keep int) (*log.Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %v", err)
	}

	fileWriter, err := NewDailyRotatingWriter(logDir, FilenameFormat, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to create log writer: %v", err)
	}
	activeRotatingWriter = fileWriter

	// Log to both file and console
	multiWriter := io.MultiWriter(os.Stdout, fileWriter)
	logger := log.New(multiWriter, "", log.LstdFlags|log.Lshortfile)

	logger.Printf("Logging initialized to %s", fileWriter.Path())

	return logger, nil
}

// SetupFallbackLogger creates a simple console logger when file logging fails
func SetupFallbackLogger() *log.Logger {
	fmt.Printf("Failed to set up file logging, using console logging only\n")
	return log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)
}

// Discard returns a logger that drops everything. Used when a component is
// constructed without a logger.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// GetWriter returns the writer for the logger
func GetWriter(logger *log.Logger) io.Writer {
	return logger.Writer()
}

// CloseLogger properly closes the log file
func CloseLogger() error {
	if activeRotatingWriter != nil {
		err := activeRotatingWriter.Close()
		activeRotatingWriter = nil
		return err
	}
	return nil
}
