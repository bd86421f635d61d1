package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates the task configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeMissingField indicates a required configuration field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Stage errors
const (
	// ErrCodeCompileFailed indicates the transformation stage failed.
	ErrCodeCompileFailed ErrorCode = "COMPILE_FAILED"
	// ErrCodeBuildFailed indicates a site generation build failed.
	ErrCodeBuildFailed ErrorCode = "BUILD_FAILED"
	// ErrCodeLintViolation indicates the lint stage found violations.
	ErrCodeLintViolation ErrorCode = "LINT_VIOLATION"
	// ErrCodeDocsFailed indicates the documentation stage failed.
	ErrCodeDocsFailed ErrorCode = "DOCS_FAILED"
	// ErrCodePostProcessFailed indicates a post-processing stage failed.
	ErrCodePostProcessFailed ErrorCode = "POSTPROCESS_FAILED"
)

// Environment errors
const (
	// ErrCodeToolNotFound indicates an external tool is not installed.
	ErrCodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	// ErrCodeToolFailed indicates an external tool exited non-zero.
	ErrCodeToolFailed ErrorCode = "TOOL_FAILED"
	// ErrCodeIO indicates a file-system read or write failed.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// exitCodes maps error codes to CLI process exit codes. Strict task modes
// use this mapping; the library itself never exits.
var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidConfig:     2,
	ErrCodeMissingField:      2,
	ErrCodeCompileFailed:     1,
	ErrCodeBuildFailed:       1,
	ErrCodeLintViolation:     1,
	ErrCodeDocsFailed:        1,
	ErrCodePostProcessFailed: 1,
	ErrCodeToolNotFound:      127,
	ErrCodeToolFailed:        1,
	ErrCodeIO:                1,
	ErrCodeInternal:          1,
}

// ExitCodeFor returns the process exit code associated with an error code.
// Unknown codes map to 1.
func ExitCodeFor(code ErrorCode) int {
	if ec, ok := exitCodes[code]; ok {
		return ec
	}
	return 1
}
