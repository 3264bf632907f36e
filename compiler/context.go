package compiler

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Context records where in a document the compiler currently is.
//
// A Context is immutable once created. Descending into a document produces
// child Contexts that point back at their parent; the back-link is only
// used to rebuild the dotted path for diagnostics. Extension handlers are
// configured on the root and inherited unchanged by every descendant.
//
// Line and Column are 1-based. A zero value means the position is unknown.
type Context struct {
	parent   *Context
	name     string
	line     int
	column   int
	handlers []ExtensionHandler
}

// NewRootContext creates a Context with no parent and no extension handlers.
func NewRootContext(name string) *Context {
	return &Context{name: name}
}

// NewRootContextWithExtensions creates a root Context whose subtree hands
// unrecognized fields to the given handlers, tried in order.
func NewRootContextWithExtensions(name string, handlers []ExtensionHandler) *Context {
	var hs []ExtensionHandler
	if len(handlers) > 0 {
		hs = make([]ExtensionHandler, len(handlers))
		copy(hs, handlers)
	}
	return &Context{name: name, handlers: hs}
}

// NewContext creates a Context below parent. A nil parent creates a root.
// The extension handlers of parent are inherited unchanged.
func NewContext(name string, line, column int, parent *Context) *Context {
	c := &Context{
		parent: parent,
		name:   name,
		line:   line,
		column: column,
	}
	if parent != nil {
		c.handlers = parent.handlers
	}
	return c
}

// Child returns a new Context named name with c as its parent.
func (c *Context) Child(name string) *Context {
	return NewContext(name, 0, 0, c)
}

// ChildWithPosition returns a positioned child of c.
func (c *Context) ChildWithPosition(name string, line, column int) *Context {
	return NewContext(name, line, column, c)
}

// ChildForNode returns a child of c positioned at node. A nil node yields
// an unpositioned child.
func (c *Context) ChildForNode(name string, node *yaml.Node) *Context {
	if node == nil {
		return c.Child(name)
	}
	return NewContext(name, node.Line, node.Column, c)
}

// Name returns the path segment this Context represents.
func (c *Context) Name() string {
	return c.name
}

// Parent returns the parent Context, or nil for a root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Position returns the source line and column and whether both are known.
func (c *Context) Position() (line, column int, ok bool) {
	return c.line, c.column, c.line > 0 && c.column > 0
}

// ExtensionHandlers returns the handlers inherited by this Context, or nil
// when none are configured for the subtree.
func (c *Context) ExtensionHandlers() []ExtensionHandler {
	return c.handlers
}

// Description returns the dot-joined names from the root down to c.
func (c *Context) Description() string {
	depth := 0
	for n := c; n != nil; n = n.parent {
		depth++
	}
	names := make([]string, depth)
	for n := c; n != nil; n = n.parent {
		depth--
		names[depth] = n.name
	}
	return strings.Join(names, ".")
}

// LocationDescription returns Description prefixed with "[line,column] "
// when the position is known.
func (c *Context) LocationDescription() string {
	line, column, ok := c.Position()
	if !ok {
		return c.Description()
	}
	return "[" + strconv.Itoa(line) + "," + strconv.Itoa(column) + "] " + c.Description()
}

// String implements fmt.Stringer.
func (c *Context) String() string {
	return c.LocationDescription()
}
