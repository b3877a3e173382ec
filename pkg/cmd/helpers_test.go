package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"
)

const (
	testTenant   = "contoso.onmicrosoft.com"
	testUserCode = "WXYZ-9876"
	testToken    = "eyJ0eXAiOiJKV1QiLCJhbGciOiJSUzI1NiJ9.payload.signature"
)

var cogauthEnv = []string{
	"COGAUTH_CONFIG", "COGAUTH_PROFILE", "COGAUTH_METHOD", "COGAUTH_TENANT_ID",
	"COGAUTH_CLIENT_ID", "COGAUTH_CLOUD", "COGAUTH_LOGIN_ENDPOINT", "COGAUTH_TOKEN",
	"COGAUTH_TOKEN_FILE", "COGAUTH_TOKEN_KEYCHAIN", "COGAUTH_OUTPUT", "COGAUTH_LOG_FORMAT",
	"COGAUTH_METRICS_TEXTFILE", "COGAUTH_DEBUG", "COGAUTH_OPEN_BROWSER",
}

// isolateEnv clears every COGAUTH_* variable for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range cogauthEnv {
		t.Setenv(key, "")
	}
}

// steppingClock advances fake time by the requested duration whenever a
// timer is created, so poll intervals elapse instantly.
type steppingClock struct {
	*clocktesting.FakeClock
}

func newSteppingClock() *steppingClock {
	return &steppingClock{FakeClock: clocktesting.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))}
}

func (c *steppingClock) NewTimer(d time.Duration) clock.Timer {
	t := c.FakeClock.NewTimer(d)
	c.FakeClock.Step(d)
	return t
}

// fakeIdentityPlatform serves the device code and token endpoints of
// testTenant. Token responses follow tokenErrors in order, then succeed.
type fakeIdentityPlatform struct {
	*httptest.Server

	mu          sync.Mutex
	tokenErrors []string
	tokenCalls  int
	deviceForm  map[string]string
}

func newFakeIdentityPlatform(t *testing.T, tokenErrors ...string) *fakeIdentityPlatform {
	t.Helper()
	p := &fakeIdentityPlatform{tokenErrors: tokenErrors}
	prefix := "/" + testTenant + "/oauth2/v2.0/"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"devicecode", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		p.mu.Lock()
		p.deviceForm = map[string]string{"client_id": r.PostForm.Get("client_id"), "scope": r.PostForm.Get("scope")}
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"device_code":      "device-code-value",
			"user_code":        testUserCode,
			"verification_uri": "https://microsoft.com/devicelogin",
			"expires_in":       900,
			"interval":         5,
		})
	})
	mux.HandleFunc(prefix+"token", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		idx := p.tokenCalls
		p.tokenCalls++
		p.mu.Unlock()
		if idx < len(p.tokenErrors) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": p.tokenErrors[idx]})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token_type":   "Bearer",
			"expires_in":   3599,
			"access_token": testToken,
		})
	})
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *fakeIdentityPlatform) TokenCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls
}

func (p *fakeIdentityPlatform) DeviceForm() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceForm
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testEnv struct {
	cfg    Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	isolateEnv(t)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		cfg: Config{
			ConfigPath:   filepath.Join(t.TempDir(), "config.yaml"),
			OutputWriter: stdout,
			ErrorWriter:  stderr,
			Context:      context.Background(),
			Clock:        newSteppingClock(),
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (e *testEnv) withPlatform(p *fakeIdentityPlatform) *testEnv {
	e.cfg.HTTPClient = p.Client()
	return e
}

func (e *testEnv) run(args ...string) error {
	root := NewRootCommand(e.cfg)
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	return root.Execute()
}
