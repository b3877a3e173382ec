package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telekom/cogauth/pkg/config"
	"github.com/telekom/cogauth/pkg/output"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cogauth configuration",
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigProfilesCommand(),
		newConfigUseProfileCommand(),
		newConfigSetProfileCommand(),
		newConfigDeleteProfileCommand(),
	)

	return cmd
}

// profileFromFlags builds a profile from the root flags. Raw tokens are never
// written to the config file.
func (rt *runtimeState) profileFromFlags(name string) (config.Profile, error) {
	if rt.tokenOverride != "" {
		return config.Profile{}, errors.New("refusing to store a raw token in the config file; use --token-env, --token-file or --token-keychain")
	}
	profile := config.Profile{
		Name:          name,
		Method:        rt.methodOverride,
		TenantID:      rt.tenantOverride,
		ClientID:      rt.clientIDOverride,
		Cloud:         rt.cloudOverride,
		OpenBrowser:   rt.openBrowser,
		TokenEnv:      rt.tokenEnv,
		TokenFile:     rt.tokenFile,
		TokenKeychain: rt.tokenKeychain,
	}
	if profile.Method == "" {
		if profile.TokenEnv == "" && profile.TokenFile == "" && profile.TokenKeychain == "" {
			profile.Method = config.MethodDeviceCode
		} else {
			profile.Method = config.MethodManualToken
		}
	}
	if err := profile.Validate(); err != nil {
		return config.Profile{}, err
	}
	return profile, nil
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a cogauth config file",
		Example: `  cogauth config init --tenant contoso.onmicrosoft.com
  cogauth config init --profile ci --token-keychain ci`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPathValue()
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			name := firstNonEmpty(rt.profileOverride, "default")
			profile, err := rt.profileFromFlags(name)
			if err != nil {
				return err
			}
			cfg := config.DefaultConfig()
			cfg.CurrentProfile = name
			cfg.Profiles = []config.Profile{profile}
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Initialized config at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			format, err := rt.OutputFormat(output.FormatYAML)
			if err != nil {
				return err
			}
			if format != output.FormatJSON {
				format = output.FormatYAML
			}
			return output.WriteObject(rt.Writer(), format, rt.cfg)
		},
	}
}

func newConfigProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-profiles",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			output.WriteProfileTable(rt.Writer(), rt.cfg.Profiles, rt.cfg.CurrentProfileOrDefault())
			return nil
		},
	}
}

func newConfigUseProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "use-profile NAME",
		Aliases: []string{"use"},
		Short:   "Set the default profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.requireConfigFile(); err != nil {
				return err
			}
			name := args[0]
			if _, err := rt.cfg.FindProfile(name); err != nil {
				return err
			}
			rt.cfg.CurrentProfile = name
			if err := config.Save(rt.configPathValue(), rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "%s\n", name)
			return nil
		},
	}
}

func newConfigSetProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-profile NAME",
		Short: "Add or replace a profile using the global flags",
		Example: `  cogauth config set-profile china --cloud china --tenant contoso.partner.onmschina.cn
  cogauth config set-profile ci --token-env AZURE_OPENAI_TOKEN`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			profile, err := rt.profileFromFlags(args[0])
			if err != nil {
				return err
			}
			rt.cfg.SetProfile(profile)
			if rt.cfg.CurrentProfile == "" {
				rt.cfg.CurrentProfile = profile.Name
			}
			if err := config.Save(rt.configPathValue(), rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Profile %s saved\n", profile.Name)
			return nil
		},
	}
}

func newConfigDeleteProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile NAME",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.requireConfigFile(); err != nil {
				return err
			}
			name := args[0]
			if _, err := rt.cfg.FindProfile(name); err != nil {
				return err
			}
			profiles := rt.cfg.Profiles[:0]
			for _, p := range rt.cfg.Profiles {
				if p.Name != name {
					profiles = append(profiles, p)
				}
			}
			rt.cfg.Profiles = profiles
			if rt.cfg.CurrentProfile == name {
				rt.cfg.CurrentProfile = ""
			}
			if err := config.Save(rt.configPathValue(), rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Profile %s deleted\n", name)
			return nil
		},
	}
}

func (rt *runtimeState) requireConfigFile() error {
	if err := rt.EnsureConfigLoaded(); err != nil {
		return err
	}
	if rt.configMissing {
		return fmt.Errorf("config file %s does not exist; run 'cogauth config init' first", rt.configPathValue())
	}
	return nil
}
