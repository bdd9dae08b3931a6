package docpipe

import (
	"errors"
	"fmt"
)

// FileReadError is returned when a source file cannot be opened or parsed.
// It is fatal for that file and never retried.
type FileReadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *FileReadError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("docpipe: read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("docpipe: read %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ExtractionServiceError is returned when the remote extraction service
// answers with a non-success status or a body that is not a JSON object.
// Reason carries the service's own explanation.
type ExtractionServiceError struct {
	Endpoint   string
	StatusCode int // 0 when the response never arrived or was malformed
	Reason     string
	Err        error
}

func (e *ExtractionServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("docpipe: extraction service %s: status %d: %s", e.Endpoint, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("docpipe: extraction service %s: %s", e.Endpoint, e.Reason)
}

func (e *ExtractionServiceError) Unwrap() error { return e.Err }

// readError wraps err as a FileReadError unless it already carries one of
// the package's typed errors.
func readError(f File, kind Kind, err error) error {
	var fre *FileReadError
	var ese *ExtractionServiceError
	if errors.As(err, &fre) || errors.As(err, &ese) {
		return err
	}
	return &FileReadError{Path: f.Path, Kind: kind, Err: err}
}
