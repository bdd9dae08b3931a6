package chatconv

import (
	"errors"
	"fmt"
)

// ErrInvalidExport is wrapped by errors about a structurally broken export.
var ErrInvalidExport = errors.New("chatconv: invalid legacy export")

// TimestampFormatError is returned when a message's createdAt cannot be
// parsed. The whole conversion fails.
type TimestampFormatError struct {
	MessageID string
	Value     string
	Err       error
}

func (e *TimestampFormatError) Error() string {
	return fmt.Sprintf("chatconv: message %s: unparsable timestamp %q: %v", e.MessageID, e.Value, e.Err)
}

func (e *TimestampFormatError) Unwrap() error { return e.Err }
