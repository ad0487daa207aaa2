// Package commands defines the stationform CLI.
//
// Commands
//
//   - stations     List the stations that reported data in the given years
//   - citation     Print the recommended citation for the given years
//   - generate     Request a download non-interactively
//   - interactive  Walk the download form in the terminal
//   - contract     Describe the backend routes
//
// # Implementation
//
// The root command loads the YAML configuration, applies flag overrides, and
// builds the dependency graph (client, page model, controller, downloader)
// before any subcommand runs.
package commands
