package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/telekom/cogauth/pkg/auth"
	"github.com/telekom/cogauth/pkg/cloud"
	"github.com/telekom/cogauth/pkg/config"
)

// resolvedSettings is the merged view of flags, environment and profile.
type resolvedSettings struct {
	ProfileName string
	Method      string
	TenantID    string
	ClientID    string
	Cloud       cloud.Cloud
	OpenBrowser bool
	TokenSource auth.TokenSource
}

func (rt *runtimeState) resolveProfile() (*config.Profile, error) {
	if rt.cfg == nil {
		return nil, errors.New("config not loaded")
	}
	name := rt.profileOverride
	if name == "" {
		name = rt.cfg.CurrentProfileOrDefault()
	}
	if name == "" {
		return nil, nil
	}
	profile, err := rt.cfg.FindProfile(name)
	if err != nil {
		if rt.configMissing {
			return nil, fmt.Errorf("%w (config file %s does not exist)", err, rt.configPath)
		}
		return nil, err
	}
	return profile, nil
}

func (rt *runtimeState) flagTokenSource() auth.TokenSource {
	return auth.TokenSource{
		Token:       rt.tokenOverride,
		TokenEnv:    rt.tokenEnv,
		TokenFile:   rt.tokenFile,
		KeychainKey: rt.tokenKeychain,
	}
}

// resolveSettings merges the sources in precedence order: flag, environment,
// profile, default.
func (rt *runtimeState) resolveSettings() (*resolvedSettings, error) {
	profile, err := rt.resolveProfile()
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &config.Profile{}
	}

	settings := &resolvedSettings{
		ProfileName: profile.Name,
		Method:      firstNonEmpty(rt.methodOverride, profile.Method),
		TenantID:    firstNonEmpty(rt.tenantOverride, profile.TenantID),
		ClientID:    firstNonEmpty(rt.clientIDOverride, profile.ClientID),
		OpenBrowser: profile.OpenBrowser,
		TokenSource: rt.flagTokenSource(),
	}
	if rt.openBrowserSet {
		settings.OpenBrowser = rt.openBrowser
	}
	if rt.noBrowser {
		settings.OpenBrowser = false
	}
	if settings.TokenSource.IsZero() {
		settings.TokenSource = auth.TokenSource{
			TokenEnv:    profile.TokenEnv,
			TokenFile:   profile.TokenFile,
			KeychainKey: profile.TokenKeychain,
		}
	}

	settings.Cloud, err = cloud.Parse(firstNonEmpty(rt.cloudOverride, profile.Cloud))
	if err != nil {
		return nil, err
	}

	if settings.Method == "" {
		if settings.TokenSource.IsZero() {
			settings.Method = config.MethodDeviceCode
		} else {
			settings.Method = config.MethodManualToken
		}
	}
	return settings, nil
}

// buildProvider selects the credential provider for the resolved settings.
func (rt *runtimeState) buildProvider(settings *resolvedSettings) (auth.CredentialProvider, error) {
	switch settings.Method {
	case config.MethodDeviceCode:
		if strings.TrimSpace(settings.TenantID) == "" {
			return nil, errors.New("tenant id is required for device-code (use --tenant, COGAUTH_TENANT_ID or a profile)")
		}
		opts := []auth.DeviceCodeOption{
			auth.WithOutput(rt.ErrWriter()),
			auth.WithLogger(rt.Logger()),
			auth.WithBrowser(settings.OpenBrowser),
		}
		if rt.httpClient != nil {
			opts = append(opts, auth.WithHTTPClient(rt.httpClient))
		}
		if rt.clock != nil {
			opts = append(opts, auth.WithClock(rt.clock))
		}
		if rt.loginEndpoint != "" {
			opts = append(opts, auth.WithLoginEndpoint(rt.loginEndpoint))
		}
		return auth.NewDeviceCodeProvider(settings.TenantID, settings.ClientID, settings.Cloud, opts...), nil
	case config.MethodManualToken:
		if settings.TokenSource.IsZero() {
			return nil, errors.New("manual-token requires --token, --token-env, --token-file, --token-keychain or COGAUTH_TOKEN")
		}
		return auth.NewManualTokenProviderFromSource(settings.TokenSource)
	default:
		return nil, fmt.Errorf("unknown method %q (expected %s or %s)", settings.Method, config.MethodDeviceCode, config.MethodManualToken)
	}
}

func (rt *runtimeState) Provider() (auth.CredentialProvider, error) {
	settings, err := rt.resolveSettings()
	if err != nil {
		return nil, err
	}
	provider, err := rt.buildProvider(settings)
	if err != nil {
		return nil, err
	}
	rt.Logger().Debugw("Selected credential provider", "method", provider.MethodName(), "profile", settings.ProfileName, "cloud", settings.Cloud.String())
	return provider, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
