package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-stationform/pkg/portal"
)

var stationYears []string

// stations --year Y...: list the stations with data in the given years.
func stationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List stations that reported data in the given years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := loadStations(cmd.Context(), stationYears)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&stationYears, "year", nil, "year to query (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

// loadStations selects years on the form and waits for the station control to
// be repopulated.
func loadStations(ctx context.Context, years []string) ([]string, error) {
	if err := wire.Document.Select(portal.YearsID, years...); err != nil {
		return nil, err
	}
	if err := wire.Loader.Load(ctx).Wait(ctx); err != nil {
		return nil, err
	}
	opts, err := wire.Document.Options(portal.NamesID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(opts))
	for i, opt := range opts {
		names[i] = opt.Value
	}
	return names, nil
}
