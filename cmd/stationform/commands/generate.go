package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-stationform/pkg/citation"
	"github.com/goliatone/go-stationform/pkg/portal"
)

var (
	genYears    []string
	genStations []string
	genMeas     []string
	genFormat   string
	genDryRun   bool
)

// generate: fill the form from flags and request the download.
func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Request a download and print its citation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := loadStations(ctx, genYears); err != nil {
				return err
			}
			doc := wire.Document
			if err := doc.Select(portal.NamesID, genStations...); err != nil {
				return err
			}
			if err := doc.Select(portal.MeasID, genMeas...); err != nil {
				return err
			}
			if genFormat != "" {
				if !offered(settings.Form.Formats, genFormat) {
					return fmt.Errorf("format %q is not offered (%s)", genFormat, strings.Join(settings.Form.Formats, ", "))
				}
				if err := doc.SetValue(portal.FormatID, genFormat); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if genDryRun {
				q, err := portal.ReadQuery(doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, wire.Client.DownloadURL(q))
				return nil
			}

			dispatch, err := wire.Dispatcher.Generate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, dispatch.Target())
			citeErr := dispatch.Wait(ctx)
			if text := dispatch.Citation(); text != "" {
				fmt.Fprintf(out, "\n%s:\n%s\n", wire.Renderer.Caption(), citation.PlainText(text))
			}
			return errors.Join(dispatch.NavigationErr(), citeErr)
		},
	}
	cmd.Flags().StringSliceVar(&genYears, "year", nil, "year to download (repeatable or comma separated)")
	cmd.Flags().StringArrayVar(&genStations, "station", nil, "station name (repeatable)")
	cmd.Flags().StringSliceVar(&genMeas, "meas", nil, "measurement column (repeatable or comma separated)")
	cmd.Flags().StringVar(&genFormat, "format", "", "download format (defaults to form.default_format)")
	cmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print the download URL without requesting it")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("station")
	_ = cmd.MarkFlagRequired("meas")
	return cmd
}

func offered(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
