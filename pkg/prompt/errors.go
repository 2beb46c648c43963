package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when the form still fails validation
	// after the configured number of submit attempts.
	ErrTooManyAttempts = errors.New("prompt: too many invalid attempts")
)
