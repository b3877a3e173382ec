package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/telekom/cogauth/pkg/metrics"
)

// MinTokenLength rejects obviously truncated or placeholder tokens. It is a
// sanity check, not a structural validation.
const MinTokenLength = 20

// ManualTokenProvider returns a token obtained outside of cogauth.
type ManualTokenProvider struct {
	token string
}

func NewManualTokenProvider(token string) (*ManualTokenProvider, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: token cannot be empty", ErrInvalidToken)
	}
	if len(trimmed) < MinTokenLength {
		return nil, fmt.Errorf("%w: token appears to be too short (%d characters, expected at least %d)",
			ErrInvalidToken, len(trimmed), MinTokenLength)
	}
	return &ManualTokenProvider{token: token}, nil
}

func (p *ManualTokenProvider) Acquire(_ context.Context) (Credentials, error) {
	metrics.CredentialAcquisitions.WithLabelValues(MethodManualToken, metrics.OutcomeSuccess).Inc()
	return BearerToken(p.token), nil
}

func (p *ManualTokenProvider) MethodName() string {
	return MethodManualToken
}
