package stream

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// OutputStream receives the records of one job run. Open is called once
// before any record, StreamComplete after the last record, Close always
// last.
type OutputStream interface {
	Open(ctx context.Context, job *config.JobConfig, stream *config.StreamConfig) error
	Write(ctx context.Context, record *directory.Record) error
	StreamComplete(ctx context.Context) error
	Close() error
}

// Factory creates a fresh stream instance for one run
type Factory func() OutputStream

// UnknownStreamError reports a stream name with no registered factory
type UnknownStreamError struct {
	Name string
}

func (e *UnknownStreamError) Error() string {
	return fmt.Sprintf("no output stream registered under [%s]", e.Name)
}

// Registry maps configured stream names to factories
type Registry struct {
	logger    *logger.Logger
	factories map[string]Factory
}

// NewRegistry creates an empty stream registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[string]Factory),
	}
}

// Register adds a stream factory under the given name
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Create builds a new stream instance for the named stream type
func (r *Registry) Create(name string) (OutputStream, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, &UnknownStreamError{Name: name}
	}
	return factory(), nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Substitute replaces {attribute} placeholders in a template with record
// values. Placeholders naming an attribute the record does not carry are
// left literal; text outside the braces is untouched.
func Substitute(template string, record *directory.Record) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := record.Get(name); ok {
			return directory.Render(v)
		}
		return match
	})
}

// SafeFileName strips characters that cannot appear in file names
func SafeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, name)
}
