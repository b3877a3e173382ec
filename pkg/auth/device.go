package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"k8s.io/utils/clock"

	"github.com/telekom/cogauth/pkg/cloud"
	"github.com/telekom/cogauth/pkg/metrics"
	"github.com/telekom/cogauth/pkg/system"
)

// DefaultClientID is the public client registration of the Azure CLI.
const DefaultClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"

// PollTimeout bounds the polling loop independently of the device code
// lifetime advertised by the server.
const PollTimeout = 15 * time.Minute

// defaultPollInterval applies when the server does not send an interval.
const defaultPollInterval = 5 * time.Second

// DeviceCodeProvider acquires a token through the device code flow. It is
// immutable after construction; every Acquire call runs a complete flow.
type DeviceCodeProvider struct {
	tenantID string
	clientID string
	scope    string
	cloud    cloud.Cloud

	loginEndpoint string
	httpClient    *http.Client
	clock         clock.Clock
	out           io.Writer
	logger        *zap.SugaredLogger
	openBrowser   bool
	openURL       func(string) error

	transport *deviceFlowClient
}

type DeviceCodeOption func(*DeviceCodeProvider)

// WithHTTPClient sets the client used for both round trips.
func WithHTTPClient(client *http.Client) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.httpClient = client
	}
}

// WithClock replaces the wall clock driving poll intervals and the timeout.
func WithClock(c clock.Clock) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.clock = c
	}
}

// WithOutput sets where the sign-in instructions are written. Defaults to
// stderr so stdout stays free for the token.
func WithOutput(w io.Writer) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.out = w
	}
}

func WithLogger(logger *zap.SugaredLogger) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.logger = logger
	}
}

// WithLoginEndpoint overrides the login endpoint resolved from the cloud,
// e.g. for sovereign deployments behind a proxy.
func WithLoginEndpoint(endpoint string) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.loginEndpoint = endpoint
	}
}

// WithBrowser opens the verification URI in the default browser.
func WithBrowser(open bool) DeviceCodeOption {
	return func(p *DeviceCodeProvider) {
		p.openBrowser = open
	}
}

// NewDeviceCodeProvider creates a provider for tenantID in c. An empty
// clientID selects DefaultClientID. Endpoint validity is checked on Acquire.
func NewDeviceCodeProvider(tenantID, clientID string, c cloud.Cloud, opts ...DeviceCodeOption) *DeviceCodeProvider {
	if strings.TrimSpace(clientID) == "" {
		clientID = DefaultClientID
	}
	p := &DeviceCodeProvider{
		tenantID:      tenantID,
		clientID:      clientID,
		scope:         c.Scope(),
		cloud:         c,
		loginEndpoint: c.LoginEndpoint(),
		clock:         clock.RealClock{},
		out:           os.Stderr,
		logger:        zap.NewNop().Sugar(),
		openURL:       browser.OpenURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.transport = newDeviceFlowClient(p.httpClient, p.logger)
	return p
}

func (p *DeviceCodeProvider) TenantID() string   { return p.tenantID }
func (p *DeviceCodeProvider) ClientID() string   { return p.clientID }
func (p *DeviceCodeProvider) Scope() string      { return p.scope }
func (p *DeviceCodeProvider) Cloud() cloud.Cloud { return p.cloud }

func (p *DeviceCodeProvider) MethodName() string {
	return MethodDeviceCode
}

// Acquire runs the handshake, shows the sign-in instructions and polls until
// the user approves, declines, the code expires or PollTimeout elapses.
func (p *DeviceCodeProvider) Acquire(ctx context.Context) (Credentials, error) {
	log := p.logger.With(system.FlowFields(uuid.NewString(), p.tenantID, p.cloud.String(), p.clientID)...)
	start := p.clock.Now()

	token, err := p.fetchToken(ctx, log)

	result := outcome(err)
	metrics.CredentialAcquisitions.WithLabelValues(MethodDeviceCode, result).Inc()
	metrics.DeviceCodeFlowDuration.WithLabelValues(result).Observe(p.clock.Since(start).Seconds())
	if err != nil {
		log.Warnw("Device code authentication failed", "outcome", result, "error", err)
		return Credentials{}, err
	}
	log.Infow("Device code authentication succeeded", "duration", p.clock.Since(start).String())
	return BearerToken(token.AccessToken), nil
}

func (p *DeviceCodeProvider) fetchToken(ctx context.Context, log *zap.SugaredLogger) (*oauth2.Token, error) {
	endpoint, err := DeriveEndpoints(p.loginEndpoint, p.tenantID)
	if err != nil {
		return nil, authFailed(err, "")
	}

	log.Debugw("Requesting device code", "endpoint", endpoint.DeviceAuthURL, "scope", p.scope)
	details, err := p.transport.requestDeviceCode(ctx, endpoint, p.clientID, p.scope)
	if err != nil {
		return nil, authFailedWrap(ErrHandshake, err)
	}

	p.displayInstructions(details, log)

	token, err := p.pollForToken(ctx, log, endpoint, details)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintln(p.out, "✓ Authentication successful!")
	_, _ = fmt.Fprintln(p.out)
	return token, nil
}

func (p *DeviceCodeProvider) displayInstructions(details *oauth2.DeviceAuthResponse, log *zap.SugaredLogger) {
	rule := strings.Repeat("=", 70)
	_, _ = fmt.Fprintf(p.out, "\n%s\n  Azure Authentication Required\n%s\n\n", rule, rule)
	_, _ = fmt.Fprintf(p.out, "  Please visit:    %s\n\n", details.VerificationURI)
	_, _ = fmt.Fprintf(p.out, "  And enter code:  %s\n\n", details.UserCode)
	if details.VerificationURIComplete != "" {
		_, _ = fmt.Fprintf(p.out, "  Or open directly: %s\n\n", details.VerificationURIComplete)
	}
	_, _ = fmt.Fprintf(p.out, "%s\n\nWaiting for authentication...\n\n", rule)

	if !details.Expiry.IsZero() {
		log.Debugw("Device code issued", "expiresAt", details.Expiry.UTC().Format(time.RFC3339), "interval", details.Interval)
	}

	if !p.openBrowser {
		return
	}
	target := details.VerificationURIComplete
	if target == "" {
		target = details.VerificationURI
	}
	if err := p.openURL(target); err != nil {
		log.Warnw("Failed to open browser, continue manually", "url", target, "error", err)
	}
}
