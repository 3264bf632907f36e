package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"go.yaml.in/yaml/v4"
)

// Expand returns a copy of node in which every mapping holding a string
// "$ref" is replaced by the referenced fragment, itself expanded. node is
// not modified.
//
// base is the locator of the document node came from. Each fragment is
// expanded relative to the document it was found in. A reference that is
// reached again while it is still being expanded is reported as a circular
// reference instead of recursing forever. Aliases are replaced by copies
// of their anchored values, so the result contains no alias nodes.
//
// Only $ref hops count toward the reader's maximum reference depth; plain
// nesting of mappings and sequences does not.
func (r *Reader) Expand(base string, node *yaml.Node) (*yaml.Node, error) {
	e := &expander{
		reader:    r,
		resolving: make(map[string]bool),
		aliasing:  make(map[*yaml.Node]bool),
	}
	return e.expand(NewRootContext(base), base, deepCopyNode(node), 0)
}

type expander struct {
	reader    *Reader
	resolving map[string]bool
	aliasing  map[*yaml.Node]bool // anchored targets being inlined
}

func (e *expander) expand(c *Context, base string, node *yaml.Node, depth int) (*yaml.Node, error) {
	if node == nil {
		return nil, nil
	}
	if depth > e.reader.maxRefDepth {
		err := NewErrorf(c, "reference nesting exceeds %d", e.reader.maxRefDepth)
		err.Cause = ErrRefDepth
		return nil, err
	}

	switch node.Kind {
	case yaml.DocumentNode:
		for i, child := range node.Content {
			expanded, err := e.expand(c, base, child, depth)
			if err != nil {
				return nil, err
			}
			node.Content[i] = expanded
		}

	case yaml.SequenceNode:
		for i, child := range node.Content {
			expanded, err := e.expand(c.ChildForNode(strconv.Itoa(i), child), base, child, depth)
			if err != nil {
				return nil, err
			}
			node.Content[i] = expanded
		}

	case yaml.AliasNode:
		return e.inline(c, base, node, depth)

	case yaml.MappingNode:
		if ref := MapValueForKey(node, "$ref"); ref != nil && ref.Kind == yaml.ScalarNode {
			return e.splice(c.ChildForNode("$ref", ref), base, ref.Value, depth)
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			expanded, err := e.expand(c.ChildForNode(key.Value, key), base, node.Content[i+1], depth)
			if err != nil {
				return nil, err
			}
			node.Content[i+1] = expanded
		}
	}
	return node, nil
}

// inline replaces an alias with an expanded copy of its anchored value.
func (e *expander) inline(c *Context, base string, alias *yaml.Node, depth int) (*yaml.Node, error) {
	target := alias.Alias
	if target == nil {
		return nil, NewErrorf(c, "unknown anchor *%s", alias.Value)
	}
	if e.aliasing[target] {
		err := NewErrorf(c, "circular alias *%s", alias.Value)
		err.Cause = ErrCircularReference
		return nil, err
	}

	e.aliasing[target] = true
	defer delete(e.aliasing, target)
	cp := deepCopyNode(target)
	cp.Anchor = ""
	return e.expand(c, base, cp, depth)
}

// splice resolves ref, found in the document at base, and expands the
// target within its own document.
func (e *expander) splice(c *Context, base, ref string, depth int) (*yaml.Node, error) {
	locator := RefLocator(base, ref)
	canonical := CanonicalRef(base, ref)
	if e.resolving[canonical] {
		err := NewError(c, "circular reference "+ref)
		err.Cause = ErrCircularReference
		return nil, err
	}

	target, err := e.reader.ReadInfoForRef("", canonical)
	if err != nil {
		msg := "could not resolve " + ref
		if !errors.Is(err, ErrUnresolvedReference) {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		cerr := NewError(c, msg)
		cerr.Cause = err
		return nil, cerr
	}

	e.resolving[canonical] = true
	defer delete(e.resolving, canonical)
	return e.expand(c, locator, deepCopyNode(target), depth+1)
}
