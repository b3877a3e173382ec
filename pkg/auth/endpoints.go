package auth

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// DeriveEndpoints builds the v2.0 authorize, token and device authorization
// endpoints of tenantID below loginEndpoint. The tenant must be usable as a
// single URL path segment.
func DeriveEndpoints(loginEndpoint, tenantID string) (oauth2.Endpoint, error) {
	if strings.TrimSpace(tenantID) == "" {
		return oauth2.Endpoint{}, fmt.Errorf("%w: tenant id is required", ErrInvalidEndpoint)
	}
	if tenantID == "." || tenantID == ".." {
		return oauth2.Endpoint{}, fmt.Errorf("%w: tenant id %q is a relative path segment", ErrInvalidEndpoint, tenantID)
	}
	if url.PathEscape(tenantID) != tenantID {
		return oauth2.Endpoint{}, fmt.Errorf("%w: tenant id %q contains characters not allowed in a URL path segment",
			ErrInvalidEndpoint, tenantID)
	}

	base := strings.TrimRight(loginEndpoint, "/")
	build := func(name, action string) (string, error) {
		raw := fmt.Sprintf("%s/%s/oauth2/v2.0/%s", base, tenantID, action)
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: invalid %s URL: %w", ErrInvalidEndpoint, name, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return "", fmt.Errorf("%w: invalid %s URL: %q is not absolute", ErrInvalidEndpoint, name, raw)
		}
		return u.String(), nil
	}

	deviceAuthURL, err := build("device auth", "devicecode")
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	tokenURL, err := build("token", "token")
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	authURL, err := build("auth", "authorize")
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	return oauth2.Endpoint{
		AuthURL:       authURL,
		TokenURL:      tokenURL,
		DeviceAuthURL: deviceAuthURL,
		AuthStyle:     oauth2.AuthStyleInParams,
	}, nil
}
