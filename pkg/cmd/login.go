package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/cogauth/pkg/auth"
	"github.com/telekom/cogauth/pkg/output"
)

type loginResult struct {
	Method string              `json:"method" yaml:"method"`
	Kind   auth.CredentialKind `json:"kind" yaml:"kind"`
	Token  string              `json:"token" yaml:"token"`
	Header string              `json:"header,omitempty" yaml:"header,omitempty"`
}

func NewLoginCommand() *cobra.Command {
	var header bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Acquire a bearer token and print it",
		Long: `Acquire a bearer token with the configured method and print it to stdout.

With the device code flow, open the printed URL on any device, enter the code
and sign in. cogauth waits up to 15 minutes for the sign-in to complete.`,
		Example: `  cogauth login --tenant contoso.onmicrosoft.com
  cogauth login --cloud china --tenant 00000000-0000-0000-0000-000000000000 -o json
  cogauth login --token-env AZURE_OPENAI_TOKEN --header`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat(output.FormatRaw)
			if err != nil {
				return err
			}
			defer rt.flushMetrics()

			provider, err := rt.Provider()
			if err != nil {
				return err
			}
			creds, err := provider.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			rt.Logger().Infow("Acquired credentials", "method", provider.MethodName(), "credentials", creds.String())

			result := loginResult{Method: provider.MethodName(), Kind: creds.Kind, Token: creds.Token}
			if header {
				result.Header = "Authorization: " + creds.AuthorizationHeader()
			}
			switch format {
			case output.FormatRaw:
				if header {
					return output.WriteRaw(rt.Writer(), result.Header)
				}
				return output.WriteRaw(rt.Writer(), creds.Token)
			case output.FormatTable:
				return fmt.Errorf("table output is not supported by login")
			default:
				return output.WriteObject(rt.Writer(), format, result)
			}
		},
	}

	cmd.Flags().BoolVar(&header, "header", false, "Print an HTTP Authorization header instead of the bare token")
	return cmd
}
