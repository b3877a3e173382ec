package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeychainService is the OS keychain service under which manual tokens are stored.
const KeychainService = "cogauth"

// TokenSource names where a pre-obtained token is read from. The first
// non-empty field wins, in declaration order.
type TokenSource struct {
	Token       string
	TokenEnv    string
	TokenFile   string
	KeychainKey string
}

func (s TokenSource) IsZero() bool {
	return s.Token == "" && s.TokenEnv == "" && s.TokenFile == "" && s.KeychainKey == ""
}

// ResolveToken reads the token named by s. File contents are trimmed of
// surrounding whitespace.
func ResolveToken(s TokenSource) (string, error) {
	if s.Token != "" {
		return s.Token, nil
	}
	if s.TokenEnv != "" {
		value := strings.TrimSpace(os.Getenv(s.TokenEnv))
		if value == "" {
			return "", fmt.Errorf("token env var not set: %s", s.TokenEnv)
		}
		return value, nil
	}
	if s.TokenFile != "" {
		bytes, err := os.ReadFile(s.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		return strings.TrimSpace(string(bytes)), nil
	}
	if s.KeychainKey != "" {
		value, err := keyring.Get(KeychainService, s.KeychainKey)
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no token stored in keychain under %q", s.KeychainKey)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token from keychain: %w", err)
		}
		return value, nil
	}
	return "", errors.New("no token source configured")
}

// NewManualTokenProviderFromSource resolves s and validates the result.
func NewManualTokenProviderFromSource(s TokenSource) (*ManualTokenProvider, error) {
	token, err := ResolveToken(s)
	if err != nil {
		return nil, err
	}
	return NewManualTokenProvider(token)
}

// StoreKeychainToken validates token and saves it in the OS keychain under key.
func StoreKeychainToken(key, token string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("keychain key is required")
	}
	if _, err := NewManualTokenProvider(token); err != nil {
		return err
	}
	if err := keyring.Set(KeychainService, key, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("failed to store token in keychain: %w", err)
	}
	return nil
}

// DeleteKeychainToken removes the token stored under key. Deleting a
// missing entry is not an error.
func DeleteKeychainToken(key string) error {
	err := keyring.Delete(KeychainService, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keychain: %w", err)
	}
	return nil
}
