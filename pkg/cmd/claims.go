package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/cogauth/pkg/auth"
	"github.com/telekom/cogauth/pkg/output"
)

func NewClaimsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "claims",
		Short: "Acquire a token and show its identity claims",
		Long: `Acquire a token with the configured method and print who it was issued to,
for which audience and until when.

The token is decoded without verifying its signature. The output is a
display aid and must not be used for authorization decisions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat(output.FormatTable)
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
			now := time.Now()
			if rt.clock != nil {
				now = rt.clock.Now()
			}
			claims, err := auth.InspectCredentials(creds, now)
			if err != nil {
				return err
			}
			switch format {
			case output.FormatTable, output.FormatRaw:
				output.WriteClaimsTable(rt.Writer(), claims)
				return nil
			default:
				return output.WriteObject(rt.Writer(), format, claims)
			}
		},
	}
}
