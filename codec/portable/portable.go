// Package portable implements the portable-self-describing persistence
// protocol: an indented JSON container whose envelope names the schema the
// tree is encoded with, so foreign tools and languages can consume it
// without this module. Byte payloads travel base64-encoded per standard JSON
// conventions.
package portable

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/treestore/core"
)

// schema identifies the self-describing container layout. Decoding accepts
// exactly this schema.
const schema = "treestore/tree-v1"

type envelope struct {
	Schema     string     `json:"schema"`
	SnapshotID string     `json:"snapshot_id"`
	Created    time.Time  `json:"created"`
	Root       *core.Node `json:"root"`
}

// Codec is the portable-self-describing core.TreeCodec.
type Codec struct{}

var _ core.TreeCodec = (*Codec)(nil)

// New returns the portable codec.
func New() *Codec { return &Codec{} }

// Protocol returns the protocol name the codec registers under.
func (c *Codec) Protocol() string { return core.ProtocolPortable }

// Encode writes the tree as an indented JSON envelope.
func (c *Codec) Encode(w io.Writer, root *core.Node) error {
	env := envelope{
		Schema:     schema,
		SnapshotID: uuid.NewString(),
		Created:    time.Now().UTC(),
		Root:       root,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&env); err != nil {
		return core.NewIOError("portable.Encode", core.IOFile, "encode envelope", err)
	}
	return nil
}

// Decode reads a tree previously written by Encode, rejecting containers
// declaring a different schema.
func (c *Codec) Decode(r io.Reader) (*core.Node, error) {
	const op = "portable.Decode"
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, core.NewIOError(op, core.Malformed, "decode envelope", err)
	}
	if env.Schema != schema {
		return nil, core.NewIOError(op, core.Malformed, "unknown schema "+env.Schema, nil)
	}
	if env.Root == nil {
		return nil, core.NewIOError(op, core.Malformed, "envelope without tree", nil)
	}
	return env.Root, nil
}
