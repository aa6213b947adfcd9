package remote

import "fmt"

// OperationError reports a non-success response from the remote system.
// It carries enough context to diagnose the failure without re-running:
// the endpoint, the HTTP status, the reason reported by the server and,
// for writes, the request body that was sent.
type OperationError struct {
	Endpoint   string
	StatusCode int
	Reason     string
	Body       string
}

func (e *OperationError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote operation failed at %s (%d): %s\n%s", e.Endpoint, e.StatusCode, e.Reason, e.Body)
	}
	return fmt.Sprintf("remote operation failed at %s (%d): %s", e.Endpoint, e.StatusCode, e.Reason)
}

// ValidationError reports a record that cannot be written because a
// required field is missing. It is fatal to the employee, not the run.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is missing and is required: %s", e.Field, e.Detail)
}
