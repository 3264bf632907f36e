// Package cliutil provides output helpers for the apicompiler CLI:
// formatted writes and colored diagnostics.
package cliutil

import (
	"fmt"
	"io"
	"os"
)

// Writef writes formatted output to w. Output is best effort; a failed
// write is reported on stderr and otherwise ignored.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "apicompiler: write error: %v\n", err)
	}
}
