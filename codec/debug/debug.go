// Package debug implements the text-debug protocol: a human-readable YAML
// dump of the generic tree with scalars decoded and buffer payloads
// summarized. The dump is write-only and not guaranteed to round-trip;
// Decode always fails.
package debug

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/treestore/core"
)

// Codec is the text-debug core.TreeCodec.
type Codec struct{}

var _ core.TreeCodec = (*Codec)(nil)

// New returns the text-debug codec.
func New() *Codec { return &Codec{} }

// Protocol returns the protocol name the codec registers under.
func (c *Codec) Protocol() string { return core.ProtocolDebug }

// Encode writes a readable YAML rendering of the tree.
func (c *Codec) Encode(w io.Writer, root *core.Node) error {
	if err := yaml.NewEncoder(w).Encode(render(root)); err != nil {
		return core.NewIOError("debug.Encode", core.IOFile, "encode dump", err)
	}
	return nil
}

// Decode is unsupported: the dump exists for humans, not for round trips.
func (c *Codec) Decode(io.Reader) (*core.Node, error) {
	return nil, core.NewIOError("debug.Decode", core.Unsupported, "text-debug is write-only", nil)
}

// render flattens a node into plain maps so the YAML output reads naturally.
func render(n *core.Node) map[string]any {
	name := n.Name
	if name == "" {
		name = "/"
	}
	out := map[string]any{"name": name}
	if n.Kind == core.GroupNode {
		children := make([]map[string]any, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, render(c))
		}
		out["children"] = children
		return out
	}

	rec := n.View
	out["state"] = rec.State
	out["type"] = rec.Type
	if len(rec.Shape) > 0 {
		out["shape"] = rec.Shape
	}
	switch {
	case rec.Source.Buffer != nil:
		b := rec.Source.Buffer
		out["buffer"] = map[string]any{
			"type":         b.Type,
			"num_elements": b.NumElements,
			"offset":       b.Offset,
			"stride":       b.Stride,
			"data":         fmt.Sprintf("<%d bytes>", len(b.Data)),
		}
	case rec.Source.External != nil:
		out["external"] = true
	case rec.Source.Scalar != nil:
		if t, bits, err := core.DecodeScalar(rec.Source.Scalar); err == nil {
			out["value"] = core.ScalarValue(t, bits)
		}
	case rec.Source.String != nil:
		out["value"] = rec.Source.String.Text
	case rec.Source.Opaque != nil:
		out["opaque"] = true
	}
	return out
}
