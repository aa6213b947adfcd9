package stream

import (
	"context"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// LoggerStream writes each record to the log. Useful for verifying a job
// configuration before pointing it at a real destination.
type LoggerStream struct {
	logger *logger.Logger
	name   string
}

// NewLoggerStream creates a logger output stream
func NewLoggerStream(log *logger.Logger) *LoggerStream {
	return &LoggerStream{logger: log}
}

func (s *LoggerStream) Open(ctx context.Context, job *config.JobConfig, stream *config.StreamConfig) error {
	s.name = stream.Name
	return nil
}

func (s *LoggerStream) Write(ctx context.Context, record *directory.Record) error {
	s.logger.WithStream(s.name).Info(record.JSON())
	return nil
}

func (s *LoggerStream) StreamComplete(ctx context.Context) error {
	return nil
}

func (s *LoggerStream) Close() error {
	s.logger.WithStream(s.name).Info("closed the logger stream")
	return nil
}
