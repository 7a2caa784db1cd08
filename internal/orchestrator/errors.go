package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose id is taken.
	ErrSessionExists = errors.New("session already exists")

	// ErrNoVariants is returned by Append when the kit has no output variants.
	ErrNoVariants = errors.New("no output variants configured")

	// ErrServiceClosed is returned for appends submitted after Close.
	ErrServiceClosed = errors.New("service closed")
)

// TranscodeError wraps an encoder failure. Nothing was committed; the whole
// append may be retried.
type TranscodeError struct {
	SessionID     string
	MediaSequence int
	Err           error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode session %s segment %d: %v", e.SessionID, e.MediaSequence, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// ProbeError wraps a probe failure, including unparseable probe output.
// Nothing was committed; the whole append may be retried.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// IOError wraps a playlist write failure. The segment it belongs to is
// already committed and is not rolled back.
type IOError struct {
	SessionID string
	Err       error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write playlists for session %s: %v", e.SessionID, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// failureKind labels err for metrics.
func failureKind(err error) string {
	var (
		te *TranscodeError
		pe *ProbeError
		ie *IOError
	)
	switch {
	case errors.As(err, &te):
		return "transcode"
	case errors.As(err, &pe):
		return "probe"
	case errors.As(err, &ie):
		return "io"
	default:
		return "other"
	}
}
