package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-stationform/pkg/citation"
	"github.com/goliatone/go-stationform/pkg/client"
	"github.com/goliatone/go-stationform/pkg/contract"
	"github.com/goliatone/go-stationform/pkg/logging"
	"github.com/goliatone/go-stationform/pkg/page"
	"github.com/goliatone/go-stationform/pkg/portal"
)

const userAgent = "go-stationform"

// Wire bundles the page, controller, and clients for the CLI.
type Wire struct {
	Logger     logging.Logger
	HTTP       *http.Client
	Contract   *contract.Contract
	Client     *client.Client
	Document   *page.Document
	Renderer   *citation.Renderer
	Downloader *client.Downloader
	Loader     *portal.StationLoader
	Dispatcher *portal.Dispatcher
	Metrics    *portal.Metrics
	Registry   *prometheus.Registry
}

// NewWire constructs the dependency graph from cfg.
func NewWire(ctx context.Context, cfg Config) (*Wire, error) {
	s := cfg.Settings
	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(logging.Config{
			Level:  s.Logging.Level,
			Format: s.Logging.Format,
			Output: cfg.LogOutput,
		})
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// The contract is always loaded so the CLI can describe the backend;
	// the client only enforces it when validate_responses is set.
	ct, err := loadContract(ctx, s.Backend.Contract, httpClient)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithHTTPClient(httpClient),
		client.WithPaths(s.Backend.Paths),
		client.WithTimeout(s.Backend.Timeout),
		client.WithRetry(s.Backend.Retries, s.Backend.RetryInterval),
		client.WithLogger(logger.With(logging.String("component", "client"))),
		client.WithUserAgent(firstNonEmpty(s.Backend.UserAgent, userAgent)),
	}
	if s.Backend.ValidateResponses {
		opts = append(opts, client.WithContract(ct))
	}
	backend, err := client.New(s.Backend.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	doc, err := portal.NewDocument(s.FormSpec())
	if err != nil {
		return nil, err
	}

	renderOpts := []citation.Option{
		citation.WithCaption(s.Citation.Caption),
		citation.WithTrustedMarkup(s.Citation.TrustedMarkup),
	}
	if len(s.Citation.CSSVars) > 0 {
		renderOpts = append(renderOpts, citation.WithTheme(&theme.RendererConfig{CSSVars: s.Citation.CSSVars}))
	}
	renderer, err := citation.New(renderOpts...)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := portal.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	downloader := &client.Downloader{
		HTTP:   httpClient,
		Dir:    s.Download.Dir,
		Base:   backend.BaseURL(),
		Logger: logger.With(logging.String("component", "download")),
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = downloader
	}

	loader, err := portal.NewStationLoader(doc, backend,
		portal.WithLogger(logger.With(logging.String("component", "loader"))),
		portal.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	dispatcher, err := portal.NewDispatcher(doc, backend, nav,
		portal.WithLogger(logger.With(logging.String("component", "dispatcher"))),
		portal.WithMetrics(metrics),
		portal.WithRenderer(renderer),
	)
	if err != nil {
		return nil, err
	}

	return &Wire{
		Logger:     logger,
		HTTP:       httpClient,
		Contract:   ct,
		Client:     backend,
		Document:   doc,
		Renderer:   renderer,
		Downloader: downloader,
		Loader:     loader,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Registry:   registry,
	}, nil
}

// MetricsHandler exposes the wire's registry in the Prometheus text format.
func (w *Wire) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(w.Registry, promhttp.HandlerOpts{})
}

func loadContract(ctx context.Context, location string, hc *http.Client) (*contract.Contract, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return contract.Default()
	}
	var src contract.Source
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		var err error
		if src, err = contract.SourceFromURL(location); err != nil {
			return nil, err
		}
	} else {
		src = contract.SourceFromFile(location)
	}
	ct, err := contract.Load(ctx, src, contract.LoadOptions{HTTPClient: hc})
	if err != nil {
		return nil, fmt.Errorf("app: load contract: %w", err)
	}
	return ct, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
