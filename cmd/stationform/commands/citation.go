package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-stationform/pkg/citation"
)

var (
	citationYears  []string
	citationMarkup bool
)

// citation --year Y...: print the recommended citation.
func citationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citation",
		Short: "Print the recommended citation for the given years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := wire.Client.Citation(cmd.Context(), citationYears)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if citationMarkup {
				markup, err := wire.Renderer.Render(text)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, markup)
				return nil
			}
			fmt.Fprintln(out, citation.PlainText(text))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&citationYears, "year", nil, "year covered by the data (repeatable or comma separated)")
	cmd.Flags().BoolVar(&citationMarkup, "markup", false, "print the citation box markup instead of plain text")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
