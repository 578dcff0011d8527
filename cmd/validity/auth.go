package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/validity/internal/config"
	"github.com/spf13/cobra"
)

var errEmptySecret = errors.New("no secret given on stdin")

// NewAuthCmd creates the auth command and its subcommands.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials in the OS keyring",
		Long: `Auth stores API credentials in the OS keyring (service "validity").

Credentials:
  factcheck  Google Fact Check Tools API key   (VALIDITY_FACTCHECK_API_KEY)
  serpapi    SerpAPI key for Google Scholar    (VALIDITY_SERPAPI_KEY)
  inference  Bearer token of the model servers (VALIDITY_INFERENCE_TOKEN)

Environment variables and .env files take precedence over the keyring.

Examples:
  # Read the key from stdin
  echo "$KEY" | validity auth set factcheck
  validity auth status
  validity auth delete factcheck`,
	}

	cmd.AddCommand(newAuthSetCmd())
	cmd.AddCommand(newAuthDeleteCmd())
	cmd.AddCommand(newAuthStatusCmd())

	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <factcheck|serpapi|inference>",
		Short: "Store a credential read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := config.ParseCredential(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s secret: ", cred)
			secret, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			fmt.Fprintln(cmd.ErrOrStderr())
			secret = strings.TrimSpace(secret)
			if secret == "" {
				if err != nil {
					return fmt.Errorf("%w: %w", errEmptySecret, err)
				}
				return errEmptySecret
			}

			if err := config.StoreCredential(cred, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the keyring\n", cred)
			return nil
		},
	}
}

func newAuthDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <factcheck|serpapi|inference>",
		Short: "Remove a credential from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := config.ParseCredential(args[0])
			if err != nil {
				return err
			}
			if err := config.DeleteCredential(cred); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from the keyring\n", cred)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cred := range []config.Credential{
				config.CredentialFactCheck,
				config.CredentialSerpAPI,
				config.CredentialInference,
			} {
				secret, err := config.LookupCredential(cred)
				state := "not set"
				switch {
				case err != nil:
					state = "error: " + err.Error()
				case secret != "":
					state = "set"
				}
				fmt.Fprintf(out, "%-10s %s\n", cred, state)
			}
			return nil
		},
	}
}
