// Package app builds the stationform dependency graph (client, page model,
// controller, citation renderer, downloader, metrics) from configuration so
// CLI commands share one wiring path.
package app
