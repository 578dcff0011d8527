package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for validity.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validity",
		Short: "Rate the validity of a web page for a search query",
		Long: `validity fetches a web page, extracts its paragraph text and rates it
against a search query.

The final score (0-100) is a weighted blend of:
- Domain trust (static table, SQLite trust database, placeholder default)
- Relevance (cosine similarity of sentence embeddings)
- Fact-check (Google Fact Check Tools claim reviews)
- Bias (sentiment classification of the page text)
- Citation (Google Scholar citation count through SerpAPI)`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRateCmd())
	cmd.AddCommand(NewTrustCmd())
	cmd.AddCommand(NewAuthCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag reads the persistent verbose flag from cmd or its parents.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}
