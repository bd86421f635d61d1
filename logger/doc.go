// Package logger provides structured logging for assetpipe tasks
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("sass")
//	log.Info("compile finished", logger.DurationFields("compile", elapsed))
package logger
