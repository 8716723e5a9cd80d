package settings

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind tags a Value.
type Kind int

const (
	// Unspecified means "let the encoder decide"; the flag is omitted.
	Unspecified Kind = iota
	// SourceDefault keeps whatever the input has; the flag is omitted.
	SourceDefault
	// Explicit carries a concrete value that is passed to ffmpeg.
	Explicit
)

// Wire literals for the sentinel kinds. Matching is exact and case-sensitive.
const (
	AutoLiteral     = "Auto"
	OriginalLiteral = "Original"
)

// Value is an optional encoder parameter that is either explicit, a
// keep-the-source sentinel, or unspecified.
type Value struct {
	kind Kind
	v    string
}

// Auto returns the unspecified value.
func Auto() Value { return Value{kind: Unspecified} }

// Original returns the keep-the-source value.
func Original() Value { return Value{kind: SourceDefault} }

// ExplicitValue returns a concrete value. An empty string is unspecified.
func ExplicitValue(v string) Value {
	if v == "" {
		return Auto()
	}
	return Value{kind: Explicit, v: v}
}

// ParseValue maps the wire form to a Value.
func ParseValue(s string) Value {
	switch s {
	case "", AutoLiteral:
		return Auto()
	case OriginalLiteral:
		return Original()
	}
	return Value{kind: Explicit, v: s}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsExplicit reports whether the value must be passed to ffmpeg.
func (v Value) IsExplicit() bool { return v.kind == Explicit && v.v != "" }

// Get returns the explicit value and whether there is one.
func (v Value) Get() (string, bool) {
	return v.v, v.IsExplicit()
}

// String returns the wire form.
func (v Value) String() string {
	switch v.kind {
	case SourceDefault:
		return OriginalLiteral
	case Explicit:
		return v.v
	}
	return AutoLiteral
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar, got %s", node.Line, node.Tag)
	}
	*v = ParseValue(node.Value)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements json.Unmarshaler. Bare numbers are accepted.
func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if nerr := json.Unmarshal(b, &n); nerr != nil {
			return err
		}
		s = n.String()
	}
	*v = ParseValue(s)
	return nil
}
