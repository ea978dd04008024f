// Package app contains the core application logic. It discovers pipeline
// descriptions, builds the execution context of every run from environment
// files and command-line overrides, and drives the runner, decoupled from
// any specific entrypoint like a CLI.
package app
