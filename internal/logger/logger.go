package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	instance *Logger
	once     sync.Once
)

// Logger writes human-readable lines to the console and, when a log
// directory is configured, to a daily file as well.
type Logger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
}

// Init initializes the global logger instance. An empty logDir logs to the
// console only.
func Init(logDir string) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(logDir)
	})
	return initErr
}

func newLogger(logDir string) (*Logger, error) {
	infoWriter := io.Writer(os.Stdout)
	errorWriter := io.Writer(os.Stderr)

	var logFile *os.File
	if logDir != "" {
		f, err := openDailyFile(logDir)
		if err != nil {
			return nil, err
		}
		logFile = f
		infoWriter = io.MultiWriter(os.Stdout, f)
		errorWriter = io.MultiWriter(os.Stderr, f)
	}

	return &Logger{
		infoLogger:  log.New(infoWriter, "", log.LstdFlags),
		errorLogger: log.New(errorWriter, "ERROR: ", log.LstdFlags),
		logFile:     logFile,
	}, nil
}

// openDailyFile opens (or creates) adgate-YYYY-MM-DD.log inside logDir.
func openDailyFile(logDir string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("adgate-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Close closes the log file
func Close() error {
	if instance != nil && instance.logFile != nil {
		return instance.logFile.Close()
	}
	return nil
}

// Info logs an informational message
func Info(format string, v ...interface{}) {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.infoLogger.Printf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.errorLogger.Printf(format, v...)
}

// Println logs a simple message
func Println(v ...interface{}) {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.infoLogger.Println(v...)
}

// Printf logs a formatted message
func Printf(format string, v ...interface{}) {
	Info(format, v...)
}

// Fatalf logs a formatted fatal error and exits
func Fatalf(format string, v ...interface{}) {
	if instance == nil {
		log.Fatalf(format, v...)
	}
	instance.mu.Lock()
	instance.errorLogger.Fatalf(format, v...)
}
