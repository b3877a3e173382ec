package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/telekom/cogauth/pkg/cloud"
)

const (
	VersionV1 = "v1"
)

// Authentication methods selectable in a profile.
const (
	MethodDeviceCode  = "device-code"
	MethodManualToken = "manual-token"
)

type Config struct {
	Version        string    `yaml:"version"`
	CurrentProfile string    `yaml:"current-profile,omitempty"`
	Profiles       []Profile `yaml:"profiles,omitempty"`
	Settings       Settings  `yaml:"settings,omitempty"`
}

type Settings struct {
	OutputFormat    string `yaml:"output-format,omitempty"`
	LogFormat       string `yaml:"log-format,omitempty"`
	MetricsTextfile string `yaml:"metrics-textfile,omitempty"`
}

type Profile struct {
	Name          string `yaml:"name"`
	Method        string `yaml:"method"`
	TenantID      string `yaml:"tenant-id,omitempty"`
	ClientID      string `yaml:"client-id,omitempty"`
	Cloud         string `yaml:"cloud,omitempty"`
	OpenBrowser   bool   `yaml:"open-browser,omitempty"`
	TokenEnv      string `yaml:"token-env,omitempty"`
	TokenFile     string `yaml:"token-file,omitempty"`
	TokenKeychain string `yaml:"token-keychain,omitempty"`
}

// CloudValue parses the profile's cloud; an empty value is the global cloud.
func (p Profile) CloudValue() (cloud.Cloud, error) {
	return cloud.Parse(p.Cloud)
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Settings: Settings{
			OutputFormat: "raw",
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) FindProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

func (c *Config) CurrentProfileOrDefault() string {
	if c.CurrentProfile != "" {
		return c.CurrentProfile
	}
	if len(c.Profiles) > 0 {
		return c.Profiles[0].Name
	}
	return ""
}

// SetProfile adds p, replacing an existing profile with the same name.
func (c *Config) SetProfile(p Profile) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return
		}
	}
	c.Profiles = append(c.Profiles, p)
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if c.Version != VersionV1 {
		return fmt.Errorf("unsupported config version: %s", c.Version)
	}
	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("profile name cannot be empty")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile name: %s", p.Name)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	if c.CurrentProfile != "" && !seen[c.CurrentProfile] {
		return fmt.Errorf("current profile %s is not defined", c.CurrentProfile)
	}
	return nil
}

func (p Profile) Validate() error {
	if _, err := p.CloudValue(); err != nil {
		return err
	}
	switch p.Method {
	case MethodDeviceCode:
		if strings.TrimSpace(p.TenantID) == "" {
			return errors.New("tenant-id is required for device-code")
		}
	case MethodManualToken:
	case "":
		return errors.New("method is required")
	default:
		return fmt.Errorf("unknown method %q (expected %s or %s)", p.Method, MethodDeviceCode, MethodManualToken)
	}
	return nil
}
