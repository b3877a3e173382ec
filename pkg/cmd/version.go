package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/cogauth/pkg/output"
	"github.com/telekom/cogauth/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show cogauth version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			// Get runtime if available (for custom writer), but don't fail if missing
			rt, _ := getRuntime(cmd)
			writer := cmd.OutOrStdout()
			format := output.FormatRaw
			if rt != nil {
				writer = rt.Writer()
				parsed, err := output.ParseFormat(rt.outputFormat, output.FormatRaw)
				if err != nil {
					return err
				}
				format = parsed
			}

			switch format {
			case output.FormatJSON, output.FormatYAML:
				return output.WriteObject(writer, format, info)
			default:
				_, _ = fmt.Fprintf(writer, "cogauth %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
				return nil
			}
		},
	}
}
