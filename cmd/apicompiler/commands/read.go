package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// ReadFlags contains flags for the read command
type ReadFlags struct {
	ReaderFlags
	Format string
	Expand bool
	Output string
}

// SetupReadFlags creates and configures a FlagSet for the read command.
// Returns the FlagSet and a ReadFlags struct with bound flag variables.
func SetupReadFlags() (*flag.FlagSet, *ReadFlags) {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	flags := &ReadFlags{}

	addReaderFlags(fs, &flags.ReaderFlags)
	fs.StringVar(&flags.Format, "format", FormatYAML, "output format: yaml or json")
	fs.BoolVar(&flags.Expand, "expand", false, "replace every $ref with its target before printing")
	fs.StringVar(&flags.Output, "o", "", "write output to file instead of stdout")
	fs.StringVar(&flags.Output, "output", "", "write output to file instead of stdout")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: apicompiler read [flags] <file|url|->\n\n")
		Writef(output, "Read a document and print its parsed tree.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  apicompiler read openapi.yaml\n")
		Writef(output, "  apicompiler read --format json https://example.com/api/openapi.yaml\n")
		Writef(output, "  apicompiler read --expand -o bundled.yaml openapi.yaml\n")
		Writef(output, "  cat openapi.yaml | apicompiler read -\n")
		Writef(output, "\nExit Codes:\n")
		Writef(output, "  0    Document read successfully\n")
		Writef(output, "  1    Read, parse or reference errors\n")
	}

	return fs, flags
}

// HandleRead executes the read command
func HandleRead(args []string) error {
	fs, flags := SetupReadFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("read command requires exactly one file path, URL, or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	locator := fs.Arg(0)
	r := NewReader(&flags.ReaderFlags)

	node, err := readDocument(r, locator)
	if err != nil {
		printErrors(err)
		return fmt.Errorf("reading %s failed", FormatLocator(locator))
	}

	if flags.Expand {
		base := locator
		if base == StdinFilePath {
			base = ""
		}
		node, err = r.Expand(base, node)
		if err != nil {
			printErrors(err)
			return fmt.Errorf("expanding %s failed", FormatLocator(locator))
		}
	}

	data, err := MarshalNode(node, flags.Format)
	if err != nil {
		return err
	}
	if err := WriteOutput(data, flags.Output, locator); err != nil {
		return err
	}
	if flags.Output != "" && flags.Verbose {
		Writef(os.Stderr, "Wrote %s\n", flags.Output)
	}
	return nil
}
