// Package binary implements the native-binary persistence protocol: a
// compact msgpack container carrying the generic tree. Round trips are
// guaranteed within a single format version only; for cross-tool exchange
// use the portable codec instead.
package binary

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hupe1980/treestore/core"
)

// formatVersion is bumped whenever the envelope or node encoding changes
// incompatibly. Decoding rejects any other version.
const formatVersion = 1

type envelope struct {
	Format     string     `msgpack:"format"`
	Version    int        `msgpack:"version"`
	SnapshotID string     `msgpack:"snapshot_id"`
	Created    time.Time  `msgpack:"created"`
	Root       *core.Node `msgpack:"root"`
}

// Codec is the native-binary core.TreeCodec.
type Codec struct{}

var _ core.TreeCodec = (*Codec)(nil)

// New returns the native-binary codec.
func New() *Codec { return &Codec{} }

// Protocol returns the protocol name the codec registers under.
func (c *Codec) Protocol() string { return core.ProtocolBinary }

// Encode writes the tree as a msgpack envelope. Every envelope carries a
// fresh snapshot id and creation timestamp.
func (c *Codec) Encode(w io.Writer, root *core.Node) error {
	env := envelope{
		Format:     "treestore",
		Version:    formatVersion,
		SnapshotID: uuid.NewString(),
		Created:    time.Now().UTC(),
		Root:       root,
	}
	if err := msgpack.NewEncoder(w).Encode(&env); err != nil {
		return core.NewIOError("binary.Encode", core.IOFile, "encode envelope", err)
	}
	return nil
}

// Decode reads a tree previously written by Encode, rejecting foreign or
// differently-versioned envelopes.
func (c *Codec) Decode(r io.Reader) (*core.Node, error) {
	const op = "binary.Decode"
	var env envelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, core.NewIOError(op, core.Malformed, "decode envelope", err)
	}
	if env.Format != "treestore" {
		return nil, core.NewIOError(op, core.Malformed, "not a treestore container", nil)
	}
	if env.Version != formatVersion {
		return nil, core.NewIOError(op, core.Malformed, "unsupported format version", nil)
	}
	if env.Root == nil {
		return nil, core.NewIOError(op, core.Malformed, "envelope without tree", nil)
	}
	return env.Root, nil
}
