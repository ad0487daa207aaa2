package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// contract: describe the backend routes the client relies on.
func contractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contract",
		Short: "List the backend operations from the loaded OpenAPI contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if title := wire.Contract.Title(); title != "" {
				fmt.Fprintf(out, "%s (%s)\n\n", title, wire.Contract.Source().Location())
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tID\tPARAMS")
			for _, op := range wire.Contract.Operations() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Method, op.Path, op.ID, strings.Join(op.Params, ","))
			}
			return tw.Flush()
		},
	}
}
