package cmd

import (
	"errors"

	"github.com/telekom/cogauth/pkg/auth"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitInvalidToken = 2
	ExitAuthFailed   = 3
	// ExitRetryable covers timeouts and expired device codes; running the
	// command again may succeed.
	ExitRetryable = 4
	ExitDenied    = 5
)

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, auth.ErrInvalidToken):
		return ExitInvalidToken
	case errors.Is(err, auth.ErrTimeout), errors.Is(err, auth.ErrDeviceCodeExpired):
		return ExitRetryable
	case errors.Is(err, auth.ErrAccessDenied):
		return ExitDenied
	case errors.Is(err, auth.ErrAuthFailed):
		return ExitAuthFailed
	default:
		return ExitError
	}
}
