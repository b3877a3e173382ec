package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/cogauth/pkg/auth"
)

func NewKeychainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keychain",
		Short: "Manage tokens stored in the OS keychain",
	}
	cmd.AddCommand(
		newKeychainSetCommand(),
		newKeychainDeleteCommand(),
	)
	return cmd
}

func newKeychainSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY",
		Short: "Store a bearer token in the OS keychain",
		Long: `Store a bearer token in the OS keychain under KEY, for later use with
--token-keychain KEY or the token-keychain profile setting.

The token is taken from --token, --token-env or --token-file, or read from
the first line of stdin when none of them is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			source := rt.flagTokenSource()
			source.KeychainKey = ""

			var token string
			if source.IsZero() {
				token, err = readTokenLine(cmd.InOrStdin())
			} else {
				token, err = auth.ResolveToken(source)
			}
			if err != nil {
				return err
			}
			if err := auth.StoreKeychainToken(args[0], token); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.ErrWriter(), "Stored token in keychain under %q\n", args[0])
			return nil
		},
	}
}

func newKeychainDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove a bearer token from the OS keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := auth.DeleteKeychainToken(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.ErrWriter(), "Removed token %q from keychain\n", args[0])
			return nil
		},
	}
}

func readTokenLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read token from stdin: %w", err)
		}
		return "", errors.New("no token provided on stdin")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
