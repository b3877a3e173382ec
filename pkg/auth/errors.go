package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/telekom/cogauth/pkg/metrics"
)

var (
	// ErrInvalidToken is returned by the manual provider when the supplied
	// token fails local validation.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrAuthFailed wraps every failure of the device code flow. The cause
	// is one of the errors below and can be tested with errors.Is.
	ErrAuthFailed = errors.New("device code authentication failed")

	ErrInvalidEndpoint   = errors.New("invalid endpoint URL")
	ErrHandshake         = errors.New("failed to initiate device code flow")
	ErrNetwork           = errors.New("network error during token request")
	ErrTimeout           = errors.New("authentication was not completed in time")
	ErrDeviceCodeExpired = errors.New("device code expired")
	ErrAccessDenied      = errors.New("user declined authorization")
	ErrServerRejected    = errors.New("authorization server rejected the request")
)

func authFailed(cause error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %w", ErrAuthFailed, cause)
	}
	return fmt.Errorf("%w: %w: %s", ErrAuthFailed, cause, detail)
}

func authFailedWrap(cause, err error) error {
	return fmt.Errorf("%w: %w: %w", ErrAuthFailed, cause, err)
}

// outcome maps an acquisition error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.Is(err, ErrInvalidToken):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrDeviceCodeExpired):
		return metrics.OutcomeExpired
	case errors.Is(err, ErrAccessDenied):
		return metrics.OutcomeDenied
	case errors.Is(err, ErrServerRejected):
		return metrics.OutcomeRejected
	case errors.Is(err, ErrNetwork):
		return metrics.OutcomeNetwork
	default:
		return metrics.OutcomeError
	}
}
