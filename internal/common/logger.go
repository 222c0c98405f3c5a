package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultLogTimeFormat = "15:04:05"
	logFileName          = "murmur.log"
	logFileMaxSize       = 100 * 1024 * 1024
	logFileMaxBackups    = 3
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.Mutex
)

// GetLogger returns the logger built by InitLogger, or a console logger
// when startup has not got that far yet
func GetLogger() arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter(defaultLogTimeFormat))
	}
	return globalLogger
}

// InitLogger builds the logger described by config.Logging and makes it
// the global one. A log directory that cannot be created drops the file
// writer, not the run.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	cfg := config.Logging
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultLogTimeFormat
	}
	toFile, toConsole := logOutputs(cfg.Output)

	logger := arbor.NewLogger()

	if toFile {
		dir, err := logDir(cfg)
		if err == nil {
			err = os.MkdirAll(dir, 0755)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
			toConsole = true
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, logFileName),
				TimeFormat: timeFormat,
				MaxSize:    logFileMaxSize,
				MaxBackups: logFileMaxBackups,
				TextOutput: true,
			})
		}
	}

	if toConsole {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat))
	}

	logger = logger.WithLevelFromString(cfg.Level)
	globalLogger = logger
	return logger
}

// GetLogFilePath returns the file writer's path, empty when logging only
// to the console
func GetLogFilePath(logger arbor.ILogger) string {
	if logger == nil {
		return ""
	}
	return logger.GetLogFilePath()
}

func logOutputs(outputs []string) (toFile, toConsole bool) {
	for _, output := range outputs {
		switch output {
		case "file":
			toFile = true
		case "stdout", "console":
			toConsole = true
		}
	}
	return toFile, toConsole
}

// logDir is the configured directory, else logs/ beside the executable
func logDir(cfg LoggingConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), "logs"), nil
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: timeFormat,
		TextOutput: true,
	}
}
