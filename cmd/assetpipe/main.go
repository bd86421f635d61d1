// Command assetpipe runs configuration-driven front-end asset tasks:
// compile, clean, lint, docs and watch.
package main

import (
	"os"

	"github.com/skillsenselab/assetpipe/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}
