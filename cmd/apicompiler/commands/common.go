// Package commands provides CLI command handlers for apicompiler.
package commands

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apicompiler/compiler"
	"github.com/erraggy/apicompiler/internal/cliutil"
	"github.com/erraggy/apicompiler/internal/pathutil"
)

// Output format constants
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatYAML, FormatJSON)
	}
	return nil
}

// Writef writes formatted output to the writer.
func Writef(w io.Writer, format string, args ...any) {
	cliutil.Writef(w, format, args...)
}

// FormatLocator returns a display-friendly locator.
// Returns "<stdin>" if the locator is StdinFilePath.
func FormatLocator(locator string) string {
	if locator == StdinFilePath {
		return "<stdin>"
	}
	return locator
}

// ReaderFlags holds the flags shared by every command that reads documents.
type ReaderFlags struct {
	NoCache     bool
	NoHTTPS     bool
	Verbose     bool
	MaxRefDepth int
}

func addReaderFlags(fs *flag.FlagSet, flags *ReaderFlags) {
	fs.BoolVar(&flags.NoCache, "no-cache", false, "disable the byte and parsed-document caches")
	fs.BoolVar(&flags.NoHTTPS, "no-https", false, "refuse to fetch https locators")
	fs.BoolVar(&flags.Verbose, "verbose", false, "log cache hits and fetches to stderr")
	fs.IntVar(&flags.MaxRefDepth, "max-ref-depth", compiler.DefaultMaxRefDepth, "maximum $ref nesting when expanding")
}

// NewReader builds a Reader configured from flags. Diagnostics are logged
// to stderr.
func NewReader(flags *ReaderFlags) *compiler.Reader {
	level := slog.LevelWarn
	if flags.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	r := compiler.NewReader(
		compiler.WithLogger(compiler.NewSlogAdapter(logger)),
		compiler.WithHTTPS(!flags.NoHTTPS),
		compiler.WithMaxRefDepth(flags.MaxRefDepth),
	)
	if flags.NoCache {
		r.Cache().DisableFileCache()
		r.Cache().DisableInfoCache()
	}
	r.SetVerbose(flags.Verbose)
	return r
}

// readDocument reads locator, or stdin for StdinFilePath. Stdin content is
// parsed without a locator and is never cached.
func readDocument(r *compiler.Reader, locator string) (*yaml.Node, error) {
	if locator != StdinFilePath {
		return r.ReadInfoForFile(locator)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return r.ReadInfoFromBytes("", data)
}

// MarshalNode serializes node as YAML or indented JSON.
func MarshalNode(node *yaml.Node, format string) ([]byte, error) {
	if format == FormatJSON {
		return compiler.MarshalJSON(node)
	}
	return compiler.Marshal(node)
}

// WriteOutput writes data to stdout, or to outputPath when it is set.
// outputPath may not name any of inputs.
func WriteOutput(data []byte, outputPath string, inputs ...string) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	cleaned, err := pathutil.SanitizeOutputPath(outputPath, inputs...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cleaned, data, 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// printErrors writes err to stderr, expanding ErrorGroups to one line per
// error.
func printErrors(err error) {
	p := cliutil.NewPainter(os.Stderr)
	if g, ok := err.(*compiler.ErrorGroup); ok {
		cliutil.WriteErrorGroup(os.Stderr, p, g)
		return
	}
	if ce, ok := err.(*compiler.CompilerError); ok {
		Writef(os.Stderr, "%s\n", p.Diagnostic(ce))
		return
	}
	Writef(os.Stderr, "%s\n", p.Error(err.Error()))
}
