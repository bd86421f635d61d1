package process

import (
	"io"
	"time"
)

// Command describes one external tool invocation.
type Command struct {
	// Binary is the executable, either an absolute path or a name looked
	// up on PATH.
	Binary string

	// Args are passed to the tool as-is.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env holds extra key=value entries appended to the inherited
	// environment. Tools like autoprefixer read configuration from env.
	Env []string

	// Stdin feeds the tool's standard input when non-nil. Used for
	// stream-filter tools that transform stdin to stdout.
	Stdin io.Reader

	// GracePeriod overrides the SIGTERM-to-SIGKILL window applied when
	// the run is cancelled. Zero selects the package default.
	GracePeriod time.Duration
}
