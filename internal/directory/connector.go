package directory

import (
	"context"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
)

// UserResult carries one record off the directory, or the error that
// ended the sequence.
type UserResult struct {
	Record *Record
	Err    error
}

// Connector produces the users of a job as a one-shot lazy sequence. The
// channel closes when the sequence is exhausted; a UserResult with Err
// set reports a directory failure and ends the sequence.
type Connector interface {
	Users(ctx context.Context, job *config.JobConfig) (<-chan UserResult, error)
}
