package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// ExtensionRequestVersion is the version written in every handler request.
const ExtensionRequestVersion = "0.1.0"

// ExtensionHandler interprets a vendor extension the decoders do not
// understand natively.
//
// Handle returns a nil or empty payload to decline; the next configured
// handler is then tried.
type ExtensionHandler interface {
	Name() string
	Handle(ctx context.Context, node *yaml.Node, extensionName string) ([]byte, error)
}

// HandlerFunc adapts an ordinary function to ExtensionHandler.
type HandlerFunc struct {
	ID string
	Fn func(ctx context.Context, node *yaml.Node, extensionName string) ([]byte, error)
}

// Name implements ExtensionHandler.
func (h HandlerFunc) Name() string { return h.ID }

// Handle implements ExtensionHandler.
func (h HandlerFunc) Handle(ctx context.Context, node *yaml.Node, extensionName string) ([]byte, error) {
	if h.Fn == nil {
		return nil, nil
	}
	return h.Fn(ctx, node, extensionName)
}

// ProcessHandler runs an external program for each extension. The request
// is written to the program's standard input and its standard output is
// the response. Empty output declines. A non-zero exit is an error carrying
// the program's standard error.
//
// A ProcessHandler with an empty Program never starts a process and always
// declines.
type ProcessHandler struct {
	Program string
	Args    []string
	Logger  Logger
}

// NewProcessHandler returns a handler that runs program with args.
func NewProcessHandler(program string, args ...string) *ProcessHandler {
	return &ProcessHandler{Program: program, Args: args}
}

// Name implements ExtensionHandler.
func (h *ProcessHandler) Name() string { return h.Program }

func (h *ProcessHandler) log() Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return NopLogger{}
}

// Handle implements ExtensionHandler.
func (h *ProcessHandler) Handle(ctx context.Context, node *yaml.Node, extensionName string) ([]byte, error) {
	if h.Program == "" {
		return nil, nil
	}

	request, err := ExtensionRequest(node, extensionName)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, h.Program, h.Args...) //nolint:gosec // G204 - handlers are operator-configured programs
	cmd.Stdin = bytes.NewReader(request)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	h.log().Debug("invoking extension handler", "handler", h.Program, "extension", extensionName)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			h.log().Warn("extension handler failed", "handler", h.Program, "extension", extensionName, "exit_code", exitErr.ExitCode())
			return nil, &CompilerError{
				Kind:    KindSimple,
				Message: fmt.Sprintf("extension handler %s failed: %s", h.Program, strings.TrimSpace(stderr.String())),
				Cause:   errors.Join(ErrExtension, err),
			}
		}
		return nil, newIOError(fmt.Sprintf("failed to run extension handler %s: %v", h.Program, err), err)
	}

	if stdout.Len() == 0 {
		h.log().Debug("extension handler declined", "handler", h.Program, "extension", extensionName)
		return nil, nil
	}
	return stdout.Bytes(), nil
}

// ExtensionRequest builds the text sent to an external handler: the
// request version, the extension name and the node serialized as a YAML
// literal block.
func ExtensionRequest(node *yaml.Node, extensionName string) ([]byte, error) {
	body := []byte("null\n")
	if node != nil {
		var err error
		body, err = yaml.Marshal(node)
		if err != nil {
			return nil, newYAMLError(fmt.Sprintf("failed to serialize extension %s: %v", extensionName, err), err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("version: " + strconv.Quote(ExtensionRequestVersion) + "\n")
	buf.WriteString("extension_name: " + strconv.Quote(extensionName) + "\n")
	buf.WriteString("yaml: |\n")
	for _, line := range strings.Split(strings.TrimRight(string(body), "\n"), "\n") {
		buf.WriteString("  " + line + "\n")
	}
	return buf.Bytes(), nil
}

// GetExtensionHandlers returns the handlers configured for the subtree of
// c, or nil when there are none.
func GetExtensionHandlers(c *Context) []ExtensionHandler {
	if c == nil {
		return nil
	}
	return c.ExtensionHandlers()
}

// CallExtension offers node to the handlers inherited by c, in order. The
// first handler that returns a non-empty payload wins. When no handler is
// configured, or every handler declines, it returns false and a nil
// payload. A handler error stops the search.
func CallExtension(ctx context.Context, c *Context, node *yaml.Node, extensionName string) (bool, []byte, error) {
	return callExtension(ctx, c, node, extensionName, nil)
}

// CallExtensionWithMetrics is CallExtension recording each invocation in m.
func CallExtensionWithMetrics(ctx context.Context, c *Context, node *yaml.Node, extensionName string, m *Metrics) (bool, []byte, error) {
	return callExtension(ctx, c, node, extensionName, m)
}

func callExtension(ctx context.Context, c *Context, node *yaml.Node, extensionName string, m *Metrics) (bool, []byte, error) {
	for _, h := range GetExtensionHandlers(c) {
		payload, err := h.Handle(ctx, node, extensionName)
		if err != nil {
			m.RecordExtensionCall(h.Name(), "error")
			return false, nil, err
		}
		if len(payload) > 0 {
			m.RecordExtensionCall(h.Name(), "handled")
			return true, payload, nil
		}
		m.RecordExtensionCall(h.Name(), "declined")
	}
	return false, nil, nil
}
