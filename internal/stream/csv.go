package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// CSVStream writes one row per record to a local file, one column per
// mapping rule, headed by the destination field names.
type CSVStream struct {
	logger *logger.Logger

	stream *config.StreamConfig
	file   *os.File
	writer *csv.Writer
}

// NewCSVStream creates a CSV output stream
func NewCSVStream(log *logger.Logger) *CSVStream {
	return &CSVStream{logger: log}
}

// Open creates the output file and writes the header row
func (s *CSVStream) Open(ctx context.Context, job *config.JobConfig, stream *config.StreamConfig) error {
	s.stream = stream

	path := stream.Setting("path", SafeFileName(job.Name)+".csv")
	s.logger.WithStream(stream.Name).Debugf("writing users to file [%s]", path)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	s.file = file
	s.writer = csv.NewWriter(file)

	header := make([]string, len(stream.Mapping))
	for i, rule := range stream.Mapping {
		header[i] = rule.To
	}
	return s.writer.Write(header)
}

// Write renders each mapping rule against the record and writes the row
func (s *CSVStream) Write(ctx context.Context, record *directory.Record) error {
	row := make([]string, len(s.stream.Mapping))
	for i, rule := range s.stream.Mapping {
		row[i] = Substitute(rule.From, record)
	}
	return s.writer.Write(row)
}

// StreamComplete has nothing to do for CSV output
func (s *CSVStream) StreamComplete(ctx context.Context) error {
	return nil
}

// Close flushes buffered rows and closes the file
func (s *CSVStream) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
