package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// SanitizeOutputPath validates and cleans an output file path and returns
// it in absolute form.
//
// Paths that resolve to symlinks are rejected, as are paths naming one of
// inputs, so a command never overwrites a document it is reading. Remote
// locators in inputs are ignored. New files in existing directories are
// accepted.
func SanitizeOutputPath(path string, inputs ...string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pathutil: cannot resolve absolute path: %w", err)
	}

	info, err := os.Lstat(abs)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("pathutil: refusing to write to symlink: %s", abs)
		}
	case os.IsNotExist(err):
	default:
		return "", fmt.Errorf("pathutil: cannot stat path: %w", err)
	}

	for _, in := range inputs {
		if _, remote := HTTPScheme(in); remote || in == "" {
			continue
		}
		inAbs, err := filepath.Abs(filepath.Clean(in))
		if err != nil {
			return "", fmt.Errorf("pathutil: cannot resolve input path %s: %w", in, err)
		}
		if inAbs == abs {
			return "", fmt.Errorf("pathutil: output %s would overwrite input %s", path, in)
		}
	}

	return abs, nil
}
