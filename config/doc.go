// Package config provides the typed configuration schema for assetpipe
// tasks, plus loading and validation.
//
// It uses Viper to load configuration from files and environment variables.
// Loading always starts from a fresh default template: the defaults are
// never mutated, and every Load call produces an independent Project value.
// Validation runs at load/construction time, so malformed configuration
// fails before any stage executes.
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("assetpipe.yml"))
//
// Environment variables override file values using the ASSETPIPE_ prefix
// with underscore-separated paths (e.g., ASSETPIPE_SASS_DEST).
package config
