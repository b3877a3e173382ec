package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"
)

const (
	testTenant     = "11111111-2222-3333-4444-555555555555"
	testDeviceCode = "device-code-secret"
	testUserCode   = "ABCD-1234"
	testVerifyURI  = "https://microsoft.com/devicelogin"
	testToken      = "eyJ0eXAiOiJKV1QiLCJhbGciOiJSUzI1NiJ9.access-token-from-server"
)

// steppingClock is a fake clock that advances itself by exactly the
// requested duration whenever a timer is created, so the polling loop runs
// without real sleeps while fake time still passes.
type steppingClock struct {
	*clocktesting.FakeClock

	mu    sync.Mutex
	waits []time.Duration
}

var _ clock.Clock = (*steppingClock)(nil)

func newSteppingClock() *steppingClock {
	return &steppingClock{FakeClock: clocktesting.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))}
}

func (c *steppingClock) NewTimer(d time.Duration) clock.Timer {
	t := c.FakeClock.NewTimer(d)
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	c.FakeClock.Step(d)
	return t
}

func (c *steppingClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

type scriptedResponse struct {
	status int
	body   map[string]interface{}
	// hangUp closes the connection without a response.
	hangUp bool
}

func pending() scriptedResponse {
	return scriptedResponse{status: http.StatusBadRequest, body: map[string]interface{}{
		"error":             "authorization_pending",
		"error_description": "AADSTS70016: OAuth 2.0 device flow error. Authorization is pending.",
	}}
}

func slowDown() scriptedResponse {
	return scriptedResponse{status: http.StatusBadRequest, body: map[string]interface{}{"error": "slow_down"}}
}

func oauthError(code, description string) scriptedResponse {
	return scriptedResponse{status: http.StatusBadRequest, body: map[string]interface{}{
		"error":             code,
		"error_description": description,
	}}
}

func granted(token string) scriptedResponse {
	return scriptedResponse{status: http.StatusOK, body: map[string]interface{}{
		"token_type":    "Bearer",
		"scope":         "https://cognitiveservices.azure.com/.default",
		"expires_in":    3599,
		"access_token":  token,
		"refresh_token": "refresh-token-not-kept",
		"id_token":      "id-token-not-kept",
	}}
}

// authServer emulates the device code and token endpoints of one tenant.
// Token responses are served from script in order; the last entry repeats.
type authServer struct {
	*httptest.Server
	t     *testing.T
	clock clock.PassiveClock

	mu             sync.Mutex
	deviceResponse scriptedResponse
	script         []scriptedResponse
	deviceForm     url.Values
	deviceCalls    int
	tokenCalls     int
	pollTimes      []time.Time
}

func newAuthServer(t *testing.T, c clock.PassiveClock, script ...scriptedResponse) *authServer {
	t.Helper()
	s := &authServer{
		t:      t,
		clock:  c,
		script: script,
		deviceResponse: scriptedResponse{status: http.StatusOK, body: map[string]interface{}{
			"device_code":      testDeviceCode,
			"user_code":        testUserCode,
			"verification_uri": testVerifyURI,
			"expires_in":       900,
			"interval":         5,
			"message":          "To sign in, use a web browser to open the page https://microsoft.com/devicelogin and enter the code ABCD-1234 to authenticate.",
		}},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *authServer) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	prefix := "/" + testTenant + "/oauth2/v2.0/"
	switch {
	case r.Method == http.MethodPost && r.URL.Path == prefix+"devicecode":
		s.mu.Lock()
		s.deviceCalls++
		s.deviceForm = r.PostForm
		resp := s.deviceResponse
		s.mu.Unlock()
		s.write(w, resp)
	case r.Method == http.MethodPost && r.URL.Path == prefix+"token":
		if r.PostForm.Get("grant_type") != deviceCodeGrantType || r.PostForm.Get("device_code") != testDeviceCode {
			s.t.Errorf("unexpected token request form: %v", r.PostForm)
		}
		s.mu.Lock()
		idx := s.tokenCalls
		s.tokenCalls++
		s.pollTimes = append(s.pollTimes, s.clock.Now())
		if idx >= len(s.script) {
			idx = len(s.script) - 1
		}
		resp := s.script[idx]
		s.mu.Unlock()
		s.write(w, resp)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *authServer) write(w http.ResponseWriter, resp scriptedResponse) {
	if resp.hangUp {
		hj, ok := w.(http.Hijacker)
		if !ok {
			s.t.Errorf("response writer does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}

func (s *authServer) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *authServer) DeviceCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceCalls
}

func (s *authServer) PollTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.pollTimes...)
}

func (s *authServer) DeviceForm() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceForm
}

func repeat(resp scriptedResponse, n int) []scriptedResponse {
	out := make([]scriptedResponse, n)
	for i := range out {
		out[i] = resp
	}
	return out
}

func longToken(n int) string {
	return strings.Repeat("x", n)
}
