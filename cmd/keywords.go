// cmd/keywords.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/webdriver-keywords/internal/keywords"
)

func newKeywordsCmd() *cobra.Command {
	var verbose bool
	keywordsCmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the available keywords and their arguments",
		Args:  cobra.NoArgs,
		// Listing keywords needs no browser, config or logger.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := keywords.NewRegistry(keywords.NewLibrary(nil, keywords.DefaultOptions(), nil))
			printKeywords(cmd.OutOrStdout(), registry, verbose)
			return nil
		},
	}
	keywordsCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include each keyword's documentation")
	return keywordsCmd
}

func printKeywords(w io.Writer, registry *keywords.Registry, verbose bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range registry.Keywords() {
		if verbose {
			fmt.Fprintf(tw, "%s\t%s\n", k.Usage(), k.Doc)
		} else {
			fmt.Fprintln(tw, k.Usage())
		}
	}
	_ = tw.Flush()
}
