package core

import "io"

// Protocol names understood by the store's codec registry. Each maps onto one
// concrete TreeCodec implementation (see the codec subpackages).
const (
	// ProtocolBinary is the compact msgpack container. Round trips are
	// guaranteed within a single format version only.
	ProtocolBinary = "native-binary"
	// ProtocolPortable is the self-describing JSON container intended for
	// exchange with other tools and languages.
	ProtocolPortable = "portable-self-describing"
	// ProtocolDebug is the human-readable dump. It is write-only: decoding
	// is not supported and not guaranteed to round-trip.
	ProtocolDebug = "text-debug"
)

// TreeCodec maps the generic tree onto one persisted container format.
// Implementations must be lossless for every field of the tree unless the
// protocol is explicitly documented as write-only.
type TreeCodec interface {
	// Protocol returns the protocol name the codec registers under.
	Protocol() string
	// Encode writes the tree to w.
	Encode(w io.Writer, root *Node) error
	// Decode reads a tree previously written by Encode. Codecs for
	// write-only protocols return an IOError.
	Decode(r io.Reader) (*Node, error)
}
