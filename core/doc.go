// Package core provides the foundational domain types, interfaces and wire
// representations used by treestore. It defines the core abstractions for:
//
//   - Element types (TypeID) and buffer identity (IndexType / InvalidIndex)
//   - The typed error taxonomy (StructuralError, StateError, ResourceError,
//     IOError) every store operation reports failures through
//   - The generic ordered tree (Node) group subtrees export to and import
//     from, including its malformed-input validation
//   - Pluggable collaborators: Allocator for physical memory and TreeCodec
//     for persisted container formats
//
// The package intentionally keeps implementation concerns (the object model,
// concrete allocators, concrete codecs) out of scope, exposing small
// interfaces to enable custom backends without dependency cycles.
package core
