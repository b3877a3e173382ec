package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestResolveToken(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(KeychainService, "team", "keychain-token-value-0123456789"))

	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("file-token-value-0123456789\n"), 0o600))
	t.Setenv("COGAUTH_TEST_TOKEN", "  env-token-value-0123456789  ")

	tests := []struct {
		name    string
		source  TokenSource
		want    string
		wantErr string
	}{
		{name: "flag", source: TokenSource{Token: "flag-token", TokenEnv: "COGAUTH_TEST_TOKEN"}, want: "flag-token"},
		{name: "env", source: TokenSource{TokenEnv: "COGAUTH_TEST_TOKEN", TokenFile: tokenFile}, want: "env-token-value-0123456789"},
		{name: "unset env", source: TokenSource{TokenEnv: "COGAUTH_TEST_UNSET"}, wantErr: "token env var not set"},
		{name: "file", source: TokenSource{TokenFile: tokenFile, KeychainKey: "team"}, want: "file-token-value-0123456789"},
		{name: "missing file", source: TokenSource{TokenFile: filepath.Join(dir, "missing")}, wantErr: "failed to read token file"},
		{name: "keychain", source: TokenSource{KeychainKey: "team"}, want: "keychain-token-value-0123456789"},
		{name: "missing keychain entry", source: TokenSource{KeychainKey: "other"}, wantErr: `no token stored in keychain under "other"`},
		{name: "nothing configured", source: TokenSource{}, wantErr: "no token source configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveToken(tt.source)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveToken_KeychainFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	t.Cleanup(keyring.MockInit)

	_, err := ResolveToken(TokenSource{KeychainKey: "team"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain locked")
}

func TestTokenSource_IsZero(t *testing.T) {
	assert.True(t, TokenSource{}.IsZero())
	assert.False(t, TokenSource{TokenFile: "/tmp/token"}.IsZero())
}

func TestNewManualTokenProviderFromSource(t *testing.T) {
	t.Setenv("COGAUTH_TEST_TOKEN", "tiny")
	_, err := NewManualTokenProviderFromSource(TokenSource{TokenEnv: "COGAUTH_TEST_TOKEN"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	t.Setenv("COGAUTH_TEST_TOKEN", testToken)
	p, err := NewManualTokenProviderFromSource(TokenSource{TokenEnv: "COGAUTH_TEST_TOKEN"})
	require.NoError(t, err)
	assert.Equal(t, MethodManualToken, p.MethodName())
}

func TestKeychainRoundTrip(t *testing.T) {
	keyring.MockInit()

	require.Error(t, StoreKeychainToken("", testToken))
	err := StoreKeychainToken("team", "short")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, StoreKeychainToken("team", "  "+testToken+"\n"))
	got, err := ResolveToken(TokenSource{KeychainKey: "team"})
	require.NoError(t, err)
	assert.Equal(t, testToken, got)

	require.NoError(t, DeleteKeychainToken("team"))
	require.NoError(t, DeleteKeychainToken("team"), "deleting a missing entry succeeds")
	_, err = ResolveToken(TokenSource{KeychainKey: "team"})
	require.Error(t, err)
}
