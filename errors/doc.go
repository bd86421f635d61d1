// Package errors provides unified error handling for assetpipe tasks.
// It implements structured error types with error codes and CLI
// exit-code mapping, so callers decide whether a failure terminates
// the process instead of the library exiting on its own.
package errors
