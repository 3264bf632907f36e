package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"go.yaml.in/yaml/v4"
	sigsyaml "sigs.k8s.io/yaml"
)

// Tags assigned by the YAML resolver to plain scalars.
const (
	tagNull  = "!!null"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagStr   = "!!str"
)

// contentNode unwraps document and alias nodes so that helpers accept a
// document, its root value, or an alias of an anchored value.
func contentNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

// IsMapping reports whether node is a mapping.
func IsMapping(node *yaml.Node) bool {
	node = contentNode(node)
	return node != nil && node.Kind == yaml.MappingNode
}

// IsSequence reports whether node is a sequence.
func IsSequence(node *yaml.Node) bool {
	node = contentNode(node)
	return node != nil && node.Kind == yaml.SequenceNode
}

// IsScalar reports whether node is a scalar (string, number, bool or null).
func IsScalar(node *yaml.Node) bool {
	node = contentNode(node)
	return node != nil && node.Kind == yaml.ScalarNode
}

// UnpackMap returns node when it is a mapping.
func UnpackMap(node *yaml.Node) (*yaml.Node, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, false
	}
	return node, true
}

// SortedKeysForMap returns the string keys of a mapping in sorted order.
func SortedKeysForMap(node *yaml.Node) []string {
	m, ok := UnpackMap(node)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode {
			keys = append(keys, k.Value)
		}
	}
	slices.Sort(keys)
	return keys
}

// MapHasKey reports whether a mapping contains key.
func MapHasKey(node *yaml.Node, key string) bool {
	return MapValueForKey(node, key) != nil
}

// MapValueForKey returns the value stored under key, or nil.
func MapValueForKey(node *yaml.Node, key string) *yaml.Node {
	m, ok := UnpackMap(node)
	if !ok {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// MapEntries calls fn for every key/value pair of a mapping, in document
// order. The key node is passed so callers can position diagnostics.
func MapEntries(node *yaml.Node, fn func(key, value *yaml.Node)) {
	m, ok := UnpackMap(node)
	if !ok {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		fn(m.Content[i], m.Content[i+1])
	}
}

// SequenceNodeForNode returns the items of a sequence.
func SequenceNodeForNode(node *yaml.Node) ([]*yaml.Node, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil, false
	}
	return node.Content, true
}

// BoolForScalarNode returns the value of a boolean scalar.
func BoolForScalarNode(node *yaml.Node) (bool, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.ShortTag() != tagBool {
		return false, false
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

// IntForScalarNode returns the value of an integer scalar.
func IntForScalarNode(node *yaml.Node) (int64, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.ShortTag() != tagInt {
		return 0, false
	}
	var i int64
	if err := node.Decode(&i); err != nil {
		return 0, false
	}
	return i, true
}

// FloatForScalarNode returns the value of a float or integer scalar.
func FloatForScalarNode(node *yaml.Node) (float64, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch node.ShortTag() {
	case tagFloat, tagInt:
		var f float64
		if err := node.Decode(&f); err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// StringForScalarNode returns the text of any scalar. Null renders as "".
func StringForScalarNode(node *yaml.Node) (string, bool) {
	node = contentNode(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false
	}
	if node.ShortTag() == tagNull {
		return "", true
	}
	return node.Value, true
}

// StringArrayForSequenceNode returns the scalar items of a sequence as
// strings. Non-scalar items are skipped.
func StringArrayForSequenceNode(node *yaml.Node) []string {
	items, ok := SequenceNodeForNode(node)
	if !ok {
		return nil
	}
	strs := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := StringForScalarNode(item); ok {
			strs = append(strs, s)
		}
	}
	return strs
}

// MissingKeysInMap returns the required keys not present in a mapping.
func MissingKeysInMap(node *yaml.Node, requiredKeys []string) []string {
	var missing []string
	for _, key := range requiredKeys {
		if !MapHasKey(node, key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// InvalidKeysInMap returns the keys of a mapping that are neither listed in
// allowedKeys nor matched by one of allowedPatterns, in document order.
func InvalidKeysInMap(node *yaml.Node, allowedKeys []string, allowedPatterns []*regexp.Regexp) []string {
	var invalid []string
	MapEntries(node, func(k, _ *yaml.Node) {
		if k.Kind != yaml.ScalarNode {
			return
		}
		if slices.Contains(allowedKeys, k.Value) {
			return
		}
		for _, p := range allowedPatterns {
			if p.MatchString(k.Value) {
				return
			}
		}
		invalid = append(invalid, k.Value)
	})
	return invalid
}

// NewNullNode creates a null scalar.
func NewNullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
}

// NewMappingNode creates an empty mapping.
func NewMappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NewSequenceNode creates an empty sequence.
func NewSequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// NewScalarNodeForString creates a string scalar.
func NewScalarNodeForString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: s}
}

// NewSequenceNodeForStringArray creates a sequence of string scalars.
func NewSequenceNodeForStringArray(strs []string) *yaml.Node {
	node := NewSequenceNode()
	for _, s := range strs {
		node.Content = append(node.Content, NewScalarNodeForString(s))
	}
	return node
}

// NewScalarNodeForBool creates a boolean scalar.
func NewScalarNodeForBool(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(b)}
}

// NewScalarNodeForFloat creates a float scalar.
func NewScalarNodeForFloat(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagFloat, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NewScalarNodeForInt creates an integer scalar.
func NewScalarNodeForInt(i int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: strconv.FormatInt(i, 10)}
}

// PluralProperties returns "property" or "properties" for count.
func PluralProperties(count int) string {
	if count == 1 {
		return "property"
	}
	return "properties"
}

// StringArrayContainsValue reports whether array contains value.
func StringArrayContainsValue(array []string, value string) bool {
	return slices.Contains(array, value)
}

// StringArrayContainsValues reports whether array contains every value.
func StringArrayContainsValues(array []string, values []string) bool {
	for _, v := range values {
		if !slices.Contains(array, v) {
			return false
		}
	}
	return true
}

// Display returns a short human-readable rendering of node for messages.
func Display(node *yaml.Node) string {
	node = contentNode(node)
	if node == nil {
		return "null"
	}
	switch node.Kind {
	case yaml.MappingNode:
		return "{object}"
	case yaml.SequenceNode:
		return "[array]"
	}
	switch node.ShortTag() {
	case tagNull:
		return "null"
	case tagInt:
		return node.Value + " (integer)"
	case tagFloat:
		return node.Value + " (float)"
	case tagBool:
		return node.Value + " (boolean)"
	default:
		return node.Value + " (string)"
	}
}

// Marshal serializes node as YAML.
func Marshal(node *yaml.Node) ([]byte, error) {
	return yaml.Marshal(node)
}

// MarshalJSON serializes node as JSON indented by two spaces, with a
// trailing newline. Mapping keys come out sorted.
func MarshalJSON(node *yaml.Node) ([]byte, error) {
	data, err := Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshaling to yaml: %w", err)
	}
	raw, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("converting to json: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// deepCopyNode returns a copy of node that shares no mutable state with it.
// Alias nodes keep pointing at their original anchored target.
func deepCopyNode(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	cp := *node
	if node.Content != nil {
		cp.Content = make([]*yaml.Node, len(node.Content))
		for i, c := range node.Content {
			cp.Content[i] = deepCopyNode(c)
		}
	}
	return &cp
}
