package logger

import (
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger instance
func NewLogger(cfg *config.Config) *Logger {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return &Logger{Logger: log}
}

// WithJob adds job context to log entries
func (l *Logger) WithJob(jobName string) *logrus.Entry {
	return l.WithField("job", jobName)
}

// WithStream adds output stream context to log entries
func (l *Logger) WithStream(streamName string) *logrus.Entry {
	return l.WithField("stream", streamName)
}

// WithEmployee adds employee context to log entries
func (l *Logger) WithEmployee(employeeID string) *logrus.Entry {
	return l.WithField("employee_id", employeeID)
}

// WithCache adds cache context to log entries
func (l *Logger) WithCache(cacheName string) *logrus.Entry {
	return l.WithField("cache", cacheName)
}
