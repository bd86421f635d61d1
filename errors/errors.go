package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified task error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// ExitCode is the recommended process exit code for strict modes.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with the exit code derived from the error code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: ExitCodeFor(code),
	}
}

// --- Common Error Constructors ---

// InvalidConfig creates a new AppError for configuration that failed validation.
func InvalidConfig(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		ExitCode: ExitCodeFor(ErrCodeInvalidConfig),
	}
}

// MissingField creates a new AppError for a missing required configuration field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		ExitCode: ExitCodeFor(ErrCodeMissingField),
		Details:  map[string]any{"field": field},
	}
}

// CompileFailed creates a new AppError for a failed transformation stage.
func CompileFailed(path string, cause error) *AppError {
	details := make(map[string]any)
	if path != "" {
		details["path"] = path
	}
	return &AppError{
		Code: ErrCodeCompileFailed, Message: "Stylesheet compilation failed.",
		ExitCode: ExitCodeFor(ErrCodeCompileFailed), Details: details, Cause: cause,
	}
}

// BuildFailed creates a new AppError for a failed site build.
func BuildFailed(target string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeBuildFailed, Message: fmt.Sprintf("Build failed for %s.", target),
		ExitCode: ExitCodeFor(ErrCodeBuildFailed),
		Details:  map[string]any{"target": target}, Cause: cause,
	}
}

// LintViolation creates a new AppError for lint violations found across
// the checked files. The linter's report carries the individual problems;
// files is how many files were checked, not a violation count.
func LintViolation(files int) *AppError {
	return &AppError{
		Code: ErrCodeLintViolation, Message: "Lint found problems in the checked files.",
		ExitCode: ExitCodeFor(ErrCodeLintViolation),
		Details:  map[string]any{"files": files},
	}
}

// DocsFailed creates a new AppError for a failed documentation stage.
func DocsFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDocsFailed, Message: "Documentation generation failed.",
		ExitCode: ExitCodeFor(ErrCodeDocsFailed), Cause: cause,
	}
}

// PostProcessFailed creates a new AppError for a failed post-processing stage.
func PostProcessFailed(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePostProcessFailed, Message: fmt.Sprintf("Post-processing stage %q failed.", stage),
		ExitCode: ExitCodeFor(ErrCodePostProcessFailed),
		Details:  map[string]any{"stage": stage}, Cause: cause,
	}
}

// ToolNotFound creates a new AppError for an external tool missing from PATH.
func ToolNotFound(tool string) *AppError {
	return &AppError{
		Code: ErrCodeToolNotFound, Message: fmt.Sprintf("The %s executable was not found. Is it installed?", tool),
		ExitCode: ExitCodeFor(ErrCodeToolNotFound),
		Details:  map[string]any{"tool": tool},
	}
}

// ToolFailed creates a new AppError for an external tool that exited non-zero.
func ToolFailed(tool string, exitCode int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeToolFailed, Message: fmt.Sprintf("The %s tool exited with code %d.", tool, exitCode),
		ExitCode: ExitCodeFor(ErrCodeToolFailed),
		Details:  map[string]any{"tool": tool, "tool_exit_code": exitCode}, Cause: cause,
	}
}

// IO creates a new AppError for a failed file-system operation.
func IO(op, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeIO, Message: fmt.Sprintf("File operation %s failed for %s.", op, path),
		ExitCode: ExitCodeFor(ErrCodeIO),
		Details:  map[string]any{"op": op, "path": path}, Cause: cause,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		ExitCode: ExitCodeFor(ErrCodeInternal), Cause: cause,
	}
}

// Wrap normalizes any error into an AppError. AppError values (wrapped or
// not) pass through; anything else becomes an Internal error.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ExitCode extracts a process exit code from any error. Non-AppError
// values map to 1; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.ExitCode
	}
	return 1
}
