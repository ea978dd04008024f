// Package cli defines the forecastgrid command tree (run, validate,
// components and seed-db). It turns flags into an app.Config and maps
// failures to process exit codes through ExitError.
package cli
