package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-stationform/internal/app"
	"github.com/goliatone/go-stationform/pkg/config"
)

var (
	configPath string
	baseURL    string
	logLevel   string
	retries    uint

	settings config.Config
	wire     *app.Wire
)

// Execute runs the root command against os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRoot(nil).ExecuteContext(ctx)
}

// newRoot builds the command tree. override, when set, replaces the app
// config right before wiring; tests use it to inject transports.
func newRoot(override func(*app.Config)) *cobra.Command {
	root := &cobra.Command{
		Use:           "stationform",
		Short:         "Query and download AMRDC automatic weather station data",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if settings, err = loadSettings(cmd); err != nil {
				return err
			}
			cfg := app.Config{Settings: settings, LogOutput: cmd.ErrOrStderr()}
			if override != nil {
				override(&cfg)
			}
			wire, err = app.NewWire(cmd.Context(), cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base URL (overrides backend.base_url)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")
	root.PersistentFlags().UintVar(&retries, "retries", 0, "attempts per backend call, 1 disables retry (overrides backend.retries)")

	root.AddCommand(stationsCmd(), citationCmd(), generateCmd(), interactiveCmd(), contractCmd())
	return root
}

func loadSettings(cmd *cobra.Command) (config.Config, error) {
	s := config.Default()
	if configPath != "" {
		var err error
		if s, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		s.Backend.BaseURL = strings.TrimSpace(baseURL)
	}
	if flags.Changed("log-level") {
		s.Logging.Level = logLevel
	}
	if flags.Changed("retries") {
		s.Backend.Retries = retries
	}
	return s, s.Validate()
}
