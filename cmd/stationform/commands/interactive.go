package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-stationform/pkg/logging"
	"github.com/goliatone/go-stationform/pkg/renderers/tui"
)

var metricsAddr string

// interactive: prompt for every field, then download and cite.
func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"form"},
		Short:   "Fill the download form in the terminal",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr := settings.Metrics.Listen
			if cmd.Flags().Changed("metrics-addr") {
				addr = metricsAddr
			}
			if addr != "" {
				stop, err := serveMetrics(ctx, addr)
				if err != nil {
					return err
				}
				defer stop()
			}

			session, err := tui.NewSession(wire.Document, wire.Loader, wire.Dispatcher,
				tui.WithOutput(cmd.OutOrStdout()),
				tui.WithFormats(settings.Form.Formats...),
				tui.WithCaption(wire.Renderer.Caption()),
			)
			if err != nil {
				return err
			}
			result, err := session.Run(ctx)
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			if err != nil {
				return err
			}
			return errors.Join(result.NavigationErr, result.CitationErr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the form is open (overrides metrics.listen)")
	return cmd
}

// serveMetrics exposes the wire registry until the returned stop is called.
func serveMetrics(ctx context.Context, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", wire.MetricsHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wire.Logger.Error(ctx, "metrics server stopped", logging.Err(err))
		}
	}()
	wire.Logger.Info(ctx, "serving metrics", logging.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
