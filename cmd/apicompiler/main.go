package main

import (
	"fmt"
	"os"

	"github.com/erraggy/apicompiler"
	"github.com/erraggy/apicompiler/cmd/apicompiler/commands"
)

var handlers = map[string]func([]string) error{
	"read":       commands.HandleRead,
	"resolve":    commands.HandleResolve,
	"extensions": commands.HandleExtensions,
	"mcp":        commands.HandleMCP,
}

// commandNames lists every command for typo suggestions.
var commandNames = []string{"read", "resolve", "extensions", "mcp", "version", "help"}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	command := args[0]
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("apicompiler %s\n", apicompiler.Version())
		fmt.Println(apicompiler.BuildInfo())
		return 0
	case "help", "-h", "--help":
		printUsage()
		return 0
	}

	handler, ok := handlers[command]
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			_, _ = fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		_, _ = fmt.Fprintln(os.Stderr)
		printUsage()
		return 1
	}
	if err := handler(args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Printf(`apicompiler - read, resolve and extend API description documents

Usage:
  apicompiler <command> [options]

Commands:
  read         Read a document and print its parsed tree
  resolve      Resolve a $ref and print its target
  extensions   Offer vendor extensions to external handlers
  mcp          Serve the reader as MCP tools over stdio
  version      Show version information
  help         Show this help message

Run 'apicompiler <command> --help' for details on a command.
`)
}

// suggestCommand returns the closest known command within edit distance 2,
// or "" when nothing is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := editDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
