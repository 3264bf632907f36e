package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apicompiler/compiler"
	"github.com/erraggy/apicompiler/internal/cliutil"
)

// ExtensionPrefix marks vendor extension keys.
const ExtensionPrefix = "x-"

// handlerList collects repeated --handler values.
type handlerList []string

func (h *handlerList) String() string { return strings.Join(*h, ", ") }

func (h *handlerList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("handler command must not be empty")
	}
	*h = append(*h, v)
	return nil
}

// ExtensionsFlags contains flags for the extensions command
type ExtensionsFlags struct {
	ReaderFlags
	Handlers handlerList
	Quiet    bool
}

// SetupExtensionsFlags creates and configures a FlagSet for the extensions command.
func SetupExtensionsFlags() (*flag.FlagSet, *ExtensionsFlags) {
	fs := flag.NewFlagSet("extensions", flag.ContinueOnError)
	flags := &ExtensionsFlags{}

	addReaderFlags(fs, &flags.ReaderFlags)
	fs.Var(&flags.Handlers, "handler", "extension handler command, tried in order (repeatable)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only report errors")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only report errors")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: apicompiler extensions [flags] <file|url|->\n\n")
		Writef(output, "Offer every %s* value in a document to the configured extension handlers.\n", ExtensionPrefix)
		Writef(output, "Each handler receives a YAML request on stdin and answers on stdout;\n")
		Writef(output, "empty output declines and the next handler is tried.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  apicompiler extensions --handler gnostic-x-google openapi.yaml\n")
		Writef(output, "  apicompiler extensions --handler 'python3 ext.py' --handler ./fallback openapi.yaml\n")
		Writef(output, "\nExit Codes:\n")
		Writef(output, "  0    Every extension was handled or declined\n")
		Writef(output, "  1    A handler failed or the document could not be read\n")
	}

	return fs, flags
}

// ExtensionResult describes one extension that a handler accepted.
type ExtensionResult struct {
	Path string
	Name string
	Size int
}

// HandleExtensions executes the extensions command
func HandleExtensions(args []string) error {
	fs, flags := SetupExtensionsFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("extensions command requires exactly one file path, URL, or '-' for stdin")
	}

	locator := fs.Arg(0)
	r := NewReader(&flags.ReaderFlags)
	node, err := readDocument(r, locator)
	if err != nil {
		printErrors(err)
		return fmt.Errorf("reading %s failed", FormatLocator(locator))
	}

	handlers := make([]compiler.ExtensionHandler, 0, len(flags.Handlers))
	for _, cmdline := range flags.Handlers {
		fields := strings.Fields(cmdline)
		handlers = append(handlers, compiler.NewProcessHandler(fields[0], fields[1:]...))
	}
	root := compiler.NewRootContextWithExtensions("$root", handlers)

	results, group := CollectExtensions(context.Background(), root, node)

	if !flags.Quiet {
		p := cliutil.NewPainter(os.Stdout)
		for _, res := range results {
			Writef(os.Stdout, "%s %s (%d bytes)\n", p.Success("handled"), res.Path, res.Size)
		}
		Writef(os.Stdout, "%d extension(s) handled\n", len(results))
	}

	if !group.IsEmpty() {
		cliutil.WriteErrorGroup(os.Stderr, cliutil.NewPainter(os.Stderr), group)
		return fmt.Errorf("%d extension error(s)", group.Len())
	}
	return nil
}

// CollectExtensions walks node below c and calls the extension pipeline for
// every mapping key with the x- prefix. It keeps going after a failure and
// returns every error as one group.
func CollectExtensions(ctx context.Context, c *compiler.Context, node *yaml.Node) ([]ExtensionResult, *compiler.ErrorGroup) {
	w := &extensionWalker{ctx: ctx, errs: compiler.NewErrorGroup()}
	w.walk(c, node)
	return w.results, w.errs
}

type extensionWalker struct {
	ctx     context.Context
	results []ExtensionResult
	errs    *compiler.ErrorGroup
}

func (w *extensionWalker) walk(c *compiler.Context, node *yaml.Node) {
	if items, ok := compiler.SequenceNodeForNode(node); ok {
		for i, item := range items {
			w.walk(c.ChildForNode(strconv.Itoa(i), item), item)
		}
		return
	}
	compiler.MapEntries(node, func(k, v *yaml.Node) {
		child := c.ChildForNode(k.Value, k)
		if !strings.HasPrefix(k.Value, ExtensionPrefix) {
			w.walk(child, v)
			return
		}
		handled, payload, err := compiler.CallExtension(w.ctx, child, v, k.Value)
		if err != nil {
			w.errs.Push(locate(child, err))
			return
		}
		if handled {
			w.results = append(w.results, ExtensionResult{
				Path: child.Description(),
				Name: k.Value,
				Size: len(payload),
			})
		}
	})
}

// locate converts err into an error positioned at c. Handler failures carry
// no position of their own.
func locate(c *compiler.Context, err error) *compiler.CompilerError {
	ce := compiler.AsCompilerError(c, err)
	if ce.Kind != compiler.KindSimple {
		return ce
	}
	located := compiler.NewError(c, ce.Message)
	located.Cause = ce
	return located
}
