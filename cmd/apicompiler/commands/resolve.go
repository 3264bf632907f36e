package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/erraggy/apicompiler/compiler"
)

// ResolveFlags contains flags for the resolve command
type ResolveFlags struct {
	ReaderFlags
	Format string
	Expand bool
}

// SetupResolveFlags creates and configures a FlagSet for the resolve command.
func SetupResolveFlags() (*flag.FlagSet, *ResolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &ResolveFlags{}

	addReaderFlags(fs, &flags.ReaderFlags)
	fs.StringVar(&flags.Format, "format", FormatYAML, "output format: yaml or json")
	fs.BoolVar(&flags.Expand, "expand", false, "also replace every $ref inside the resolved fragment")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: apicompiler resolve [flags] <base> <ref>\n\n")
		Writef(output, "Resolve a $ref value found in the document at <base> and print its target.\n")
		Writef(output, "The file part of <ref> is relative to the directory of <base>.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  apicompiler resolve openapi.yaml '#/components/schemas/Pet'\n")
		Writef(output, "  apicompiler resolve --expand specs/api.yaml 'common.yaml#/definitions/Error'\n")
	}

	return fs, flags
}

// HandleResolve executes the resolve command
func HandleResolve(args []string) error {
	fs, flags := SetupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("resolve command requires a base locator and a reference")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	base, ref := fs.Arg(0), fs.Arg(1)
	r := NewReader(&flags.ReaderFlags)

	node, err := r.ReadInfoForRef("", compiler.CanonicalRef(base, ref))
	if err != nil {
		printErrors(err)
		return fmt.Errorf("resolving %s failed", ref)
	}

	if flags.Expand {
		// Nested references are relative to the document holding the target.
		node, err = r.Expand(compiler.RefLocator(base, ref), node)
		if err != nil {
			printErrors(err)
			return fmt.Errorf("expanding %s failed", ref)
		}
	}

	data, err := MarshalNode(node, flags.Format)
	if err != nil {
		return err
	}
	return WriteOutput(data, "")
}
