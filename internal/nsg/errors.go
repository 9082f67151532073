package nsg

import "fmt"

// TransportError covers connection failures and non-2xx responses. Body is
// kept when the server included a diagnostic payload (submit rejections
// usually do).
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthFailure reports whether the error looks like rejected credentials
// rather than a transient transport problem.
func (e *TransportError) AuthFailure() bool {
	return e.Status == 401 || e.Status == 403
}

// ParseError is a fatal document error: malformed XML (with the byte offset
// where decoding stopped) or a required field absent at end of document.
type ParseError struct {
	Doc          string
	Offset       int64
	MissingField string
	Err          error
}

func (e *ParseError) Error() string {
	if e.MissingField != "" {
		return fmt.Sprintf("parse %s: missing required field %q", e.Doc, e.MissingField)
	}
	return fmt.Sprintf("parse %s: malformed XML at offset %d: %v", e.Doc, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the caller handed the client something it cannot
// resolve, e.g. a job URL that belongs to a different endpoint.
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
}

// ResultsNotReadyError is the expected outcome of asking for results before
// the job has produced any. It is not a fault.
type ResultsNotReadyError struct {
	JobID string
	Stage string
}

func (e *ResultsNotReadyError) Error() string {
	return fmt.Sprintf("job %s has no results yet (stage %s)", e.JobID, e.Stage)
}
