package cliutil

import (
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/erraggy/apicompiler/compiler"
)

// Painter colors diagnostic output. A disabled Painter returns text
// unchanged.
type Painter struct {
	enabled bool
	err     *color.Color
	pos     *color.Color
	path    *color.Color
	ok      *color.Color
}

// NewPainter returns a Painter that colors output only when w is a
// terminal and NO_COLOR is unset.
func NewPainter(w io.Writer) *Painter {
	enabled := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return newPainter(enabled)
}

func newPainter(enabled bool) *Painter {
	p := &Painter{
		enabled: enabled,
		err:     color.New(color.FgRed, color.Bold),
		pos:     color.New(color.FgYellow),
		path:    color.New(color.FgCyan),
		ok:      color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.pos, p.path, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Enabled reports whether the Painter emits escape sequences.
func (p *Painter) Enabled() bool { return p.enabled }

// Error colors s as a failure.
func (p *Painter) Error(s string) string { return p.err.Sprint(s) }

// Success colors s as a success.
func (p *Painter) Success(s string) string { return p.ok.Sprint(s) }

// Diagnostic renders one compiler error, coloring its position and path.
// The uncolored form is identical to err.Error().
func (p *Painter) Diagnostic(err *compiler.CompilerError) string {
	switch err.Kind {
	case compiler.KindLocated:
		return p.pos.Sprintf("[%d,%d]", err.Line, err.Column) + " " + p.path.Sprint(err.Path) + " " + err.Message
	case compiler.KindUnlocated:
		return p.path.Sprint(err.Path) + " " + err.Message
	default:
		return p.err.Sprint(err.Error())
	}
}

// WriteErrorGroup writes every error of g to w, one per line, with a
// summary header. Nothing is written for an empty group.
func WriteErrorGroup(w io.Writer, p *Painter, g *compiler.ErrorGroup) {
	if g.IsEmpty() {
		return
	}
	noun := "errors"
	if g.Len() == 1 {
		noun = "error"
	}
	Writef(w, "%s\n", p.Error(strconv.Itoa(g.Len())+" "+noun+":"))
	for _, err := range g.Errors {
		Writef(w, "  %s\n", p.Diagnostic(err))
	}
}
