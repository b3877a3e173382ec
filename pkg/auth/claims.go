package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims is a display summary of an access token. It is decoded
// without signature verification and must never drive an authorization
// decision.
type TokenClaims struct {
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	User      string    `json:"user,omitempty" yaml:"user,omitempty"`
	TenantID  string    `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	Audience  []string  `json:"audience,omitempty" yaml:"audience,omitempty"`
	Issuer    string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

// InspectCredentials decodes the claims of a JWT bearer token.
func InspectCredentials(creds Credentials, now time.Time) (*TokenClaims, error) {
	if creds.Kind != CredentialKindBearer {
		return nil, fmt.Errorf("cannot inspect %s credentials", creds.Kind)
	}
	claims := jwt.MapClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(creds.Token, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	summary := &TokenClaims{}
	summary.Subject, _ = claims["sub"].(string)
	summary.TenantID, _ = claims["tid"].(string)
	summary.Issuer, _ = claims["iss"].(string)
	for _, key := range []string{"upn", "preferred_username", "unique_name", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			summary.User = v
			break
		}
	}
	switch aud := claims["aud"].(type) {
	case string:
		summary.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				summary.Audience = append(summary.Audience, s)
			}
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		summary.ExpiresAt = time.Unix(int64(exp), 0).UTC()
		summary.Expired = now.After(summary.ExpiresAt)
	}
	if summary.Subject == "" && summary.User == "" && summary.TenantID == "" {
		return nil, errors.New("token carries no identity claims")
	}
	return summary, nil
}
