package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/apicompiler/internal/mcpserver"
)

// SetupMCPFlags creates the FlagSet for the mcp command. It takes no flags;
// the server is configured through APICOMPILER_* environment variables.
func SetupMCPFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: apicompiler mcp\n\n")
		Writef(output, "Serve the reader as MCP tools over stdio.\n\n")
		Writef(output, "Environment:\n")
		Writef(output, "  APICOMPILER_CACHE_ENABLED      cache fetched and parsed documents (default: true)\n")
		Writef(output, "  APICOMPILER_ALLOW_HTTPS        fetch https locators (default: true)\n")
		Writef(output, "  APICOMPILER_ALLOW_PRIVATE_HOSTS allow fetches from private and loopback addresses (default: false)\n")
		Writef(output, "  APICOMPILER_VERBOSE            log cache hits and fetches (default: false)\n")
		Writef(output, "  APICOMPILER_MAX_REF_DEPTH      maximum $ref nesting when expanding (default: 100)\n")
		Writef(output, "  APICOMPILER_MAX_INLINE_SIZE    maximum inline content size in bytes (default: 10485760)\n")
	}
	return fs
}

// HandleMCP executes the mcp command
func HandleMCP(args []string) error {
	fs := SetupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}
