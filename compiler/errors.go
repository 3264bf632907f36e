package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrIO indicates a local read or process I/O failure.
	ErrIO = errors.New("io error")

	// ErrYAML indicates the bytes could not be parsed as a document.
	ErrYAML = errors.New("yaml error")

	// ErrHTTP indicates a remote fetch failed.
	ErrHTTP = errors.New("http error")

	// ErrUnsupportedScheme indicates an https locator was read by a reader
	// without HTTPS support.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrUnresolvedReference indicates a $ref fragment did not exist.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrCircularReference indicates a $ref chain refers back to itself.
	ErrCircularReference = errors.New("circular reference")

	// ErrRefDepth indicates $ref expansion nested deeper than allowed.
	ErrRefDepth = errors.New("reference depth exceeded")

	// ErrExtension indicates an extension handler exited unsuccessfully.
	ErrExtension = errors.New("extension handler failed")
)

// ErrorKind identifies the variant of a CompilerError.
type ErrorKind int

const (
	// KindSimple is a bare message with no document location.
	KindSimple ErrorKind = iota
	// KindLocated carries a dotted path and a line/column position.
	KindLocated
	// KindUnlocated carries a dotted path but no position.
	KindUnlocated
	// KindIO is a local I/O failure.
	KindIO
	// KindYAML is a parse failure.
	KindYAML
	// KindHTTP is a remote fetch failure.
	KindHTTP
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindLocated:
		return "located"
	case KindUnlocated:
		return "unlocated"
	case KindIO:
		return "io"
	case KindYAML:
		return "yaml"
	case KindHTTP:
		return "http"
	default:
		return "simple"
	}
}

// CompilerError is a single compilation failure.
type CompilerError struct {
	// Kind selects how the error renders.
	Kind ErrorKind
	// Line is the 1-based line (KindLocated only)
	Line int
	// Column is the 1-based column (KindLocated only)
	Column int
	// Path is the dotted Context description (KindLocated and KindUnlocated)
	Path string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any. It is not rendered.
	Cause error
}

// NewError creates an error located at c. The result is KindLocated when c
// knows its position and KindUnlocated otherwise.
func NewError(c *Context, message string) *CompilerError {
	if line, column, ok := c.Position(); ok {
		return &CompilerError{
			Kind:    KindLocated,
			Line:    line,
			Column:  column,
			Path:    c.Description(),
			Message: message,
		}
	}
	return &CompilerError{
		Kind:    KindUnlocated,
		Path:    c.Description(),
		Message: message,
	}
}

// NewErrorf is NewError with a format string.
func NewErrorf(c *Context, format string, args ...any) *CompilerError {
	return NewError(c, fmt.Sprintf(format, args...))
}

// NewErrorOpt creates an error at c, or a KindSimple error when c is nil.
func NewErrorOpt(c *Context, message string) *CompilerError {
	if c == nil {
		return NewSimpleError(message)
	}
	return NewError(c, message)
}

// NewSimpleError creates a KindSimple error.
func NewSimpleError(message string) *CompilerError {
	return &CompilerError{Kind: KindSimple, Message: message}
}

func newIOError(message string, cause error) *CompilerError {
	return &CompilerError{Kind: KindIO, Message: message, Cause: cause}
}

func newYAMLError(message string, cause error) *CompilerError {
	return &CompilerError{Kind: KindYAML, Message: message, Cause: cause}
}

func newHTTPError(message string, cause error) *CompilerError {
	return &CompilerError{Kind: KindHTTP, Message: message, Cause: cause}
}

// Error renders the error in diagnostic form.
func (e *CompilerError) Error() string {
	switch e.Kind {
	case KindLocated:
		return fmt.Sprintf("[%d,%d] %s %s", e.Line, e.Column, e.Path, e.Message)
	case KindUnlocated:
		return e.Path + " " + e.Message
	case KindIO:
		return "IO error: " + e.Message
	case KindYAML:
		return "YAML error: " + e.Message
	case KindHTTP:
		return "HTTP error: " + e.Message
	default:
		return e.Message
	}
}

// Unwrap returns the underlying cause for error chaining.
func (e *CompilerError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *CompilerError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrYAML:
		return e.Kind == KindYAML
	case ErrHTTP:
		return e.Kind == KindHTTP
	}
	return false
}

// ErrorGroup collects every failure found during one decode pass.
// The order of insertion is kept and nothing is deduplicated.
// An empty group means success.
type ErrorGroup struct {
	Errors []*CompilerError
}

// NewErrorGroup returns a group holding errs.
func NewErrorGroup(errs ...*CompilerError) *ErrorGroup {
	return &ErrorGroup{Errors: errs}
}

// FromErrors returns a group for errs, or nil when errs is empty. Decoders
// use the nil result to decide whether a sub-parse succeeded.
func FromErrors(errs []*CompilerError) *ErrorGroup {
	if len(errs) == 0 {
		return nil
	}
	return &ErrorGroup{Errors: errs}
}

// Push appends one error. A nil error is ignored.
func (g *ErrorGroup) Push(err *CompilerError) {
	if err == nil {
		return
	}
	g.Errors = append(g.Errors, err)
}

// Extend appends every error of other. A nil group is ignored.
func (g *ErrorGroup) Extend(other *ErrorGroup) {
	if other == nil {
		return
	}
	g.Errors = append(g.Errors, other.Errors...)
}

// Len returns the number of errors. A nil group has none.
func (g *ErrorGroup) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Errors)
}

// IsEmpty reports whether the group holds no errors.
func (g *ErrorGroup) IsEmpty() bool {
	return g.Len() == 0
}

// Err returns nil for an empty group and the group itself otherwise.
func (g *ErrorGroup) Err() error {
	if g.IsEmpty() {
		return nil
	}
	return g
}

// Error renders one error per line.
func (g *ErrorGroup) Error() string {
	if g == nil {
		return ""
	}
	lines := make([]string, len(g.Errors))
	for i, err := range g.Errors {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes the members to errors.Is and errors.As.
func (g *ErrorGroup) Unwrap() []error {
	if g == nil {
		return nil
	}
	errs := make([]error, len(g.Errors))
	for i, err := range g.Errors {
		errs[i] = err
	}
	return errs
}

// AsCompilerError converts err into a CompilerError. Errors that already
// are CompilerErrors are returned unchanged; anything else becomes an error
// located at c.
func AsCompilerError(c *Context, err error) *CompilerError {
	if err == nil {
		return nil
	}
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce
	}
	e := NewErrorOpt(c, err.Error())
	e.Cause = err
	return e
}
