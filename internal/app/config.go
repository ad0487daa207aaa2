package app

import (
	"io"
	"net/http"

	"github.com/goliatone/go-stationform/pkg/config"
	"github.com/goliatone/go-stationform/pkg/logging"
	"github.com/goliatone/go-stationform/pkg/portal"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Settings  config.Config
	HTTP      *http.Client     // optional; defaults to a client without overall timeout
	Logger    logging.Logger   // optional; built from Settings.Logging
	LogOutput io.Writer        // optional; defaults to stderr
	Navigator portal.Navigator // optional; defaults to the file Downloader
}
