package auth

import (
	"context"
	"fmt"
)

// Method names reported by the providers in this package.
const (
	MethodDeviceCode  = "Device Code Flow"
	MethodManualToken = "Manual Token"
)

// CredentialProvider is implemented by every authentication strategy.
// Callers hold the interface and never special-case the concrete provider.
type CredentialProvider interface {
	// Acquire produces credentials. Cancelling ctx aborts any pending wait
	// or request.
	Acquire(ctx context.Context) (Credentials, error)
	// MethodName returns a stable human-readable name of the strategy.
	MethodName() string
}

type CredentialKind string

const CredentialKindBearer CredentialKind = "bearer"

// Credentials is the result of an acquisition, tagged by Kind.
type Credentials struct {
	Kind  CredentialKind `json:"kind" yaml:"kind"`
	Token string         `json:"token" yaml:"token"`
}

func BearerToken(token string) Credentials {
	return Credentials{Kind: CredentialKindBearer, Token: token}
}

// AuthorizationHeader returns the value for the HTTP Authorization header.
func (c Credentials) AuthorizationHeader() string {
	return "Bearer " + c.Token
}

// String never includes the secret, so credentials are safe to log.
func (c Credentials) String() string {
	return fmt.Sprintf("%s(%d chars)", c.Kind, len(c.Token))
}

var (
	_ CredentialProvider = (*DeviceCodeProvider)(nil)
	_ CredentialProvider = (*ManualTokenProvider)(nil)
)
