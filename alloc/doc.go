// Package alloc contains concrete core.Allocator implementations. The
// allocator interface resides in the core package. Import
// github.com/hupe1980/treestore/core and depend on core.Allocator in your
// code; select an implementation (like the heap allocator below) at wiring
// time.
//
// Rationale: keeps the memory contract centralized while allowing pluggable
// backends (pooled arenas, pinned host memory, device memory bridges) to be
// added without introducing dependency cycles.
package alloc
