package playlist

import "fmt"

// ValidationError reports malformed construction input or a malformed state
// object. Field names the first offending field using the wire names.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
