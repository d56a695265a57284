package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ViewState enumerates the lifecycle states of a view. Exactly one state is
// active at a time; transitions are driven by the view operations.
type ViewState int

const (
	// StateEmpty is the initial state: no description, no data source.
	StateEmpty ViewState = iota
	// StateDescribed means the view carries a type/shape description but no
	// data source yet.
	StateDescribed
	// StateAllocated means a buffer is attached but the addressable extent
	// has not been finalized.
	StateAllocated
	// StateApplied means the description has been applied against the data
	// source and the extent is addressable.
	StateApplied
	// StateExternal means the view wraps caller-owned memory.
	StateExternal
	// StateScalar means the view holds an inline numeric scalar.
	StateScalar
	// StateString means the view holds an inline string.
	StateString
	// StateOpaque means the view holds an opaque handle it never interprets.
	StateOpaque
)

// String returns the lower-case name of the state.
func (s ViewState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDescribed:
		return "described"
	case StateAllocated:
		return "allocated"
	case StateApplied:
		return "applied"
	case StateExternal:
		return "external"
	case StateScalar:
		return "scalar"
	case StateString:
		return "string"
	case StateOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// ParseViewState maps a state name produced by ViewState.String back to its
// ViewState. Unknown names report ok == false.
func ParseViewState(s string) (ViewState, bool) {
	for st := StateEmpty; st <= StateOpaque; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return StateEmpty, false
}

// NodeKind discriminates the two node kinds of the generic tree.
type NodeKind int

const (
	// GroupNode carries a name and ordered children.
	GroupNode NodeKind = iota
	// ViewNode carries a name and a view record.
	ViewNode
)

// Node is one node of the generic ordered tree a group subtree exports to.
// The tree is self-contained: buffer contents are copied into view records by
// value, never referenced by index.
type Node struct {
	Kind     NodeKind    `json:"kind" msgpack:"kind" yaml:"kind"`
	Name     string      `json:"name" msgpack:"name" yaml:"name"`
	Children []*Node     `json:"children,omitempty" msgpack:"children,omitempty" yaml:"children,omitempty"`
	View     *ViewRecord `json:"view,omitempty" msgpack:"view,omitempty" yaml:"view,omitempty"`
}

// ViewRecord is the serialized form of a view: state, description and the one
// active data source.
type ViewRecord struct {
	State  string       `json:"state" msgpack:"state" yaml:"state"`
	Type   string       `json:"type" msgpack:"type" yaml:"type"`
	Shape  []int64      `json:"shape,omitempty" msgpack:"shape,omitempty" yaml:"shape,omitempty"`
	Source SourceRecord `json:"source" msgpack:"source" yaml:"source"`
}

// SourceRecord mirrors the view's tagged data source on the wire. Exactly one
// field is non-nil; Validate enforces this.
type SourceRecord struct {
	Buffer   *BufferRecord   `json:"buffer,omitempty" msgpack:"buffer,omitempty" yaml:"buffer,omitempty"`
	External *ExternalRecord `json:"external,omitempty" msgpack:"external,omitempty" yaml:"external,omitempty"`
	Scalar   *ScalarRecord   `json:"scalar,omitempty" msgpack:"scalar,omitempty" yaml:"scalar,omitempty"`
	String   *StringRecord   `json:"string,omitempty" msgpack:"string,omitempty" yaml:"string,omitempty"`
	Opaque   *OpaqueRecord   `json:"opaque,omitempty" msgpack:"opaque,omitempty" yaml:"opaque,omitempty"`
}

// BufferRecord is an inline, by-value copy of a buffer plus the layout the
// referencing view used to address it.
type BufferRecord struct {
	Type            string `json:"type" msgpack:"type" yaml:"type"`
	NumElements     int64  `json:"num_elements" msgpack:"num_elements" yaml:"num_elements"`
	BytesPerElement int64  `json:"bytes_per_element" msgpack:"bytes_per_element" yaml:"bytes_per_element"`
	Offset          int64  `json:"offset" msgpack:"offset" yaml:"offset"`
	Stride          int64  `json:"stride" msgpack:"stride" yaml:"stride"`
	Data            []byte `json:"data" msgpack:"data" yaml:"data"`
}

// ExternalRecord marks a view whose data lives in caller-owned memory. The
// memory itself is not exported; only its description survives a round trip.
type ExternalRecord struct {
	Present bool `json:"present" msgpack:"present" yaml:"present"`
}

// ScalarRecord carries a numeric scalar as its type plus the raw 8-byte
// little-endian encoding of the value, so round trips are bit-exact through
// every codec.
type ScalarRecord struct {
	Type string `json:"type" msgpack:"type" yaml:"type"`
	Raw  []byte `json:"raw" msgpack:"raw" yaml:"raw"`
}

// StringRecord carries an inline string value.
type StringRecord struct {
	Text string `json:"text" msgpack:"text" yaml:"text"`
}

// OpaqueRecord marks a view holding an opaque handle. Like external memory,
// the handle itself cannot be exported.
type OpaqueRecord struct {
	Present bool `json:"present" msgpack:"present" yaml:"present"`
}

// EncodeScalar packs a scalar value into its wire record. The raw bytes are
// the little-endian encoding of the value widened to 64 bits.
func EncodeScalar(t TypeID, bits uint64) *ScalarRecord {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, bits)
	return &ScalarRecord{Type: t.String(), Raw: raw}
}

// DecodeScalar unpacks a wire record back into its type and 64-bit encoding.
func DecodeScalar(r *ScalarRecord) (TypeID, uint64, error) {
	t, ok := ParseTypeID(r.Type)
	if !ok || !t.IsNumeric() {
		return NoType, 0, NewIOError("core.DecodeScalar", Malformed,
			fmt.Sprintf("scalar type %q", r.Type), nil)
	}
	if len(r.Raw) != 8 {
		return NoType, 0, NewIOError("core.DecodeScalar", Malformed,
			fmt.Sprintf("scalar raw length %d", len(r.Raw)), nil)
	}
	return t, binary.LittleEndian.Uint64(r.Raw), nil
}

// Float64Bits converts a float64 to its scalar bit encoding.
func Float64Bits(v float64) uint64 { return math.Float64bits(v) }

// Validate checks the node and its subtree for structural consistency: every
// group child name unique, every view record naming a known state, exactly one
// data source where the state requires one, and buffer payload sizes agreeing
// with their descriptions. It is the complete malformed-input gate run before
// an import mutates anything.
func (n *Node) Validate() error {
	return n.validate("")
}

func (n *Node) validate(path string) error {
	path = joinPath(path, n.Name)
	switch n.Kind {
	case GroupNode:
		if n.View != nil {
			return malformed(path, "group node carries a view record")
		}
		seen := make(map[string]struct{}, len(n.Children))
		for _, c := range n.Children {
			if c == nil {
				return malformed(path, "nil child node")
			}
			if c.Name == "" {
				return malformed(path, "child with empty name")
			}
			if _, dup := seen[c.Name]; dup {
				return malformed(path, fmt.Sprintf("duplicate child name %q", c.Name))
			}
			seen[c.Name] = struct{}{}
			if err := c.validate(path); err != nil {
				return err
			}
		}
		return nil
	case ViewNode:
		if len(n.Children) != 0 {
			return malformed(path, "view node carries children")
		}
		if n.View == nil {
			return malformed(path, "view node without record")
		}
		return n.View.validate(path)
	default:
		return malformed(path, fmt.Sprintf("unknown node kind %d", n.Kind))
	}
}

func (r *ViewRecord) validate(path string) error {
	state, ok := ParseViewState(r.State)
	if !ok {
		return malformed(path, fmt.Sprintf("unknown state %q", r.State))
	}
	typ, ok := ParseTypeID(r.Type)
	if !ok {
		return malformed(path, fmt.Sprintf("unknown type %q", r.Type))
	}
	switch state {
	case StateDescribed, StateAllocated, StateApplied, StateExternal:
		if !typ.IsNumeric() {
			return malformed(path, fmt.Sprintf("state %s requires an element type, got %q", state, r.Type))
		}
	}
	for _, d := range r.Shape {
		if d < 0 {
			return malformed(path, fmt.Sprintf("negative shape extent %d", d))
		}
	}

	count := 0
	if r.Source.Buffer != nil {
		count++
	}
	if r.Source.External != nil {
		count++
	}
	if r.Source.Scalar != nil {
		count++
	}
	if r.Source.String != nil {
		count++
	}
	if r.Source.Opaque != nil {
		count++
	}
	if count > 1 {
		return malformed(path, "more than one data source")
	}

	switch state {
	case StateEmpty, StateDescribed:
		if count != 0 {
			return malformed(path, "data source on an unattached view")
		}
	case StateAllocated, StateApplied:
		if r.Source.Buffer == nil {
			return malformed(path, "buffer state without inline buffer")
		}
		return r.Source.Buffer.validate(path)
	case StateExternal:
		if r.Source.External == nil || !r.Source.External.Present {
			return malformed(path, "external state without external marker")
		}
	case StateScalar:
		if r.Source.Scalar == nil {
			return malformed(path, "scalar state without scalar value")
		}
		if _, _, err := DecodeScalar(r.Source.Scalar); err != nil {
			return malformed(path, "bad scalar record")
		}
	case StateString:
		if r.Source.String == nil {
			return malformed(path, "string state without string value")
		}
	case StateOpaque:
		if r.Source.Opaque == nil || !r.Source.Opaque.Present {
			return malformed(path, "opaque state without opaque marker")
		}
	}
	return nil
}

func (b *BufferRecord) validate(path string) error {
	t, ok := ParseTypeID(b.Type)
	if !ok || !t.IsNumeric() {
		return malformed(path, fmt.Sprintf("buffer type %q", b.Type))
	}
	if b.NumElements < 0 {
		return malformed(path, fmt.Sprintf("buffer num_elements %d", b.NumElements))
	}
	if b.BytesPerElement != t.BytesPerElement() {
		return malformed(path, fmt.Sprintf("bytes_per_element %d for type %s", b.BytesPerElement, b.Type))
	}
	if int64(len(b.Data)) != b.NumElements*b.BytesPerElement {
		return malformed(path, fmt.Sprintf("buffer payload %d bytes, described %d",
			len(b.Data), b.NumElements*b.BytesPerElement))
	}
	if b.Offset < 0 || b.Stride < 1 {
		return malformed(path, fmt.Sprintf("buffer layout offset=%d stride=%d", b.Offset, b.Stride))
	}
	return nil
}

func malformed(path, msg string) error {
	return NewIOError("core.Node.Validate", Malformed, fmt.Sprintf("%s: %s", path, msg), nil)
}

func joinPath(base, name string) string {
	if base == "" {
		if name == "" {
			return "/"
		}
		return name
	}
	if base == "/" {
		return base + name
	}
	return base + "/" + name
}
