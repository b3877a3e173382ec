package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/telekom/cogauth/pkg/version"
)

const deviceCodeGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// defaultHTTPTimeout bounds a single round trip, not the whole flow.
const defaultHTTPTimeout = 30 * time.Second

type tokenJSON struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

// deviceFlowClient performs the two round trips of the device flow: the
// device authorization request and a single token exchange. Both honour ctx.
type deviceFlowClient struct {
	client *resty.Client
}

func newDeviceFlowClient(httpClient *http.Client, logger *zap.SugaredLogger) *deviceFlowClient {
	hc := &http.Client{Timeout: defaultHTTPTimeout}
	if httpClient != nil {
		// resty installs its redirect policy on the client it wraps.
		clone := *httpClient
		hc = &clone
	}
	client := resty.NewWithClient(hc).
		SetLogger(logger).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())
	return &deviceFlowClient{client: client}
}

// requestDeviceCode asks the device authorization endpoint for a device and
// user code pair.
func (c *deviceFlowClient) requestDeviceCode(ctx context.Context, endpoint oauth2.Endpoint, clientID, scope string) (*oauth2.DeviceAuthResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id": clientID,
			"scope":     scope,
		}).
		Post(endpoint.DeviceAuthURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, retrieveError(resp)
	}

	var details oauth2.DeviceAuthResponse
	if err := json.Unmarshal(resp.Body(), &details); err != nil {
		return nil, fmt.Errorf("failed to parse device authorization response: %w", err)
	}
	if details.DeviceCode == "" || details.UserCode == "" || details.VerificationURI == "" {
		return nil, errors.New("device authorization response is missing device_code, user_code or verification_uri")
	}
	return &details, nil
}

// exchangeDeviceCode performs exactly one token request. Any response from
// the server that does not carry an access token is returned as
// *oauth2.RetrieveError; every other error is a transport failure.
func (c *deviceFlowClient) exchangeDeviceCode(ctx context.Context, endpoint oauth2.Endpoint, clientID, deviceCode string) (*oauth2.Token, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":  deviceCodeGrantType,
			"client_id":   clientID,
			"device_code": deviceCode,
		}).
		Post(endpoint.TokenURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, retrieveError(resp)
	}

	var payload tokenJSON
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &oauth2.RetrieveError{
			Response:         resp.RawResponse,
			Body:             resp.Body(),
			ErrorDescription: fmt.Sprintf("unparsable token response: %v", err),
		}
	}
	// Some servers report pending states with a 2xx status.
	if payload.Error != "" || payload.AccessToken == "" {
		return nil, &oauth2.RetrieveError{
			Response:         resp.RawResponse,
			Body:             resp.Body(),
			ErrorCode:        payload.Error,
			ErrorDescription: payload.ErrorDescription,
			ErrorURI:         payload.ErrorURI,
		}
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return token, nil
}

func retrieveError(resp *resty.Response) *oauth2.RetrieveError {
	rerr := &oauth2.RetrieveError{Response: resp.RawResponse, Body: resp.Body()}
	var payload tokenJSON
	if json.Unmarshal(resp.Body(), &payload) == nil {
		rerr.ErrorCode = payload.Error
		rerr.ErrorDescription = payload.ErrorDescription
		rerr.ErrorURI = payload.ErrorURI
	}
	return rerr
}
