package recovery

import (
	"errors"
	"fmt"
)

// ErrRecoveryFailed is matched by every *RecoveryFailedError.
var ErrRecoveryFailed = errors.New("could not interpret AI output")

// RecoveryFailedError is returned when no strategy located a primary text.
type RecoveryFailedError struct {
	// Preview is the start of the offending text, bounded by the parser's
	// preview length.
	Preview string

	// Cause is the strict-path failure, if any.
	Cause error
}

func (e *RecoveryFailedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrRecoveryFailed.Error(), e.Preview)
}

func (e *RecoveryFailedError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrRecoveryFailed.
func (e *RecoveryFailedError) Is(target error) bool {
	return target == ErrRecoveryFailed
}

// preview truncates s to at most n runes, marking the cut with "...".
func preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
