package cloud

import (
	"fmt"
	"strings"
)

// Cloud identifies an Azure deployment region. The zero value is Global.
type Cloud int

const (
	Global Cloud = iota
	China
)

const (
	globalLoginEndpoint = "https://login.microsoftonline.com"
	chinaLoginEndpoint  = "https://login.chinacloudapi.cn"

	globalScope = "https://cognitiveservices.azure.com/.default"
	chinaScope  = "https://cognitiveservices.azure.cn/.default"
)

// All lists the supported clouds in declaration order.
var All = []Cloud{Global, China}

// LoginEndpoint returns the identity platform base URL without a trailing slash.
func (c Cloud) LoginEndpoint() string {
	switch c {
	case China:
		return chinaLoginEndpoint
	default:
		return globalLoginEndpoint
	}
}

// Scope returns the Cognitive Services scope requested for tokens of this cloud.
func (c Cloud) Scope() string {
	switch c {
	case China:
		return chinaScope
	default:
		return globalScope
	}
}

func (c Cloud) String() string {
	switch c {
	case China:
		return "china"
	default:
		return "global"
	}
}

// Parse resolves a cloud name as used in config files and flags.
// Matching is case-insensitive and accepts the Azure CLI cloud names.
func Parse(name string) (Cloud, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "global", "public", "azurecloud":
		return Global, nil
	case "china", "azurechinacloud":
		return China, nil
	default:
		return Global, fmt.Errorf("unknown cloud: %q (expected global or china)", name)
	}
}

func (c Cloud) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cloud) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
