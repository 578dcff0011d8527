package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nao1215/validity/internal/config"
	"github.com/nao1215/validity/internal/database"
	"github.com/nao1215/validity/internal/scorer"
	"github.com/spf13/cobra"
)

// NewTrustCmd creates the trust command and its subcommands.
func NewTrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage the domain trust database",
		Long: `Trust manages the SQLite table of domain trust scores.

Scores stored here take precedence over the domain_trust table of the
configuration file. Subdomains inherit the score of their parent domain.

Examples:
  validity trust set who.int 95 --note "intergovernmental health agency"
  validity trust get news.who.int
  validity trust list
  validity trust delete who.int`,
	}

	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the domain trust database")

	cmd.AddCommand(newTrustSetCmd())
	cmd.AddCommand(newTrustGetCmd())
	cmd.AddCommand(newTrustDeleteCmd())
	cmd.AddCommand(newTrustListCmd())

	return cmd
}

// openTrustDB opens the database named by --db-dir. Writers create it.
func openTrustDB(cmd *cobra.Command, create bool) (*database.TrustDB, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	opts := database.ReadOptions()
	if create {
		opts = database.DefaultOptions()
	}
	return database.Open(dir, opts)
}

func newTrustSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <domain> <score>",
		Short: "Set the trust score (0-100) of a domain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[1], err)
			}
			note, err := cmd.Flags().GetString("note")
			if err != nil {
				return err
			}

			db, err := openTrustDB(cmd, true)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetDomainTrust(cmd.Context(), args[0], score, note); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", scorer.NormalizeHost(args[0]), strconv.FormatFloat(score, 'f', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringP("note", "n", "", "Free-form note stored with the score")
	return cmd
}

func newTrustGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <domain>",
		Short: "Show the trust score of a domain or its nearest parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openTrustDB(cmd, false)
			if err != nil {
				return err
			}
			defer db.Close()

			entry, err := db.DomainTrust(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%s", entry.Domain, strconv.FormatFloat(entry.Score, 'f', -1, 64))
			if entry.Note != "" {
				fmt.Fprintf(out, "\t%s", entry.Note)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newTrustDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <domain>",
		Short: "Remove a domain from the trust database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openTrustDB(cmd, false)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteDomainTrust(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTrustListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all domain trust scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openTrustDB(cmd, false)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.ListDomainTrust(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No domains in the trust database.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DOMAIN\tSCORE\tUPDATED\tNOTE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					e.Domain,
					strconv.FormatFloat(e.Score, 'f', -1, 64),
					e.UpdatedAt.Format("2006-01-02"),
					e.Note,
				)
			}
			return tw.Flush()
		},
	}
}
