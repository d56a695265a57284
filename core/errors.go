package core

import (
	"errors"
	"fmt"
)

// StructuralReason classifies structural failures.
type StructuralReason int

const (
	// DuplicateName indicates an insert collided with an existing child name.
	DuplicateName StructuralReason = iota
	// InvalidPath indicates a path segment was missing or named a view where
	// a group was required.
	InvalidPath
)

// String returns the string representation of the reason.
func (r StructuralReason) String() string {
	switch r {
	case DuplicateName:
		return "duplicate name"
	case InvalidPath:
		return "invalid path"
	default:
		return "unknown"
	}
}

// StructuralError reports a namespace violation: a duplicate child name on
// insert or an unresolvable path on lookup.
type StructuralError struct {
	Op     string // operation that failed, e.g. "Group.CreateView"
	Path   string // offending name or path
	Reason StructuralReason
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Op, e.Reason, e.Path)
}

// NewStructuralError constructs a StructuralError.
func NewStructuralError(op, path string, reason StructuralReason) *StructuralError {
	return &StructuralError{Op: op, Path: path, Reason: reason}
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// StateError reports an operation that is invalid for the current state of a
// view or buffer. The failed operation never leaves a partial mutation behind.
type StateError struct {
	Op    string
	State string // state the object was in when the operation was rejected
	Msg   string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s: %s (state %s)", e.Op, e.Msg, e.State)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// NewStateError constructs a StateError.
func NewStateError(op, state, msg string) *StateError {
	return &StateError{Op: op, State: state, Msg: msg}
}

// IsState reports whether err is (or wraps) a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// ResourceError reports an allocation failure surfaced by the external
// allocator collaborator.
type ResourceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: allocation failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying allocator error.
func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError constructs a ResourceError wrapping the allocator failure.
func NewResourceError(op string, err error) *ResourceError {
	return &ResourceError{Op: op, Err: err}
}

// IsResource reports whether err is (or wraps) a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

// IOReason classifies I/O failures.
type IOReason int

const (
	// IOFile indicates a file open/read/write failure.
	IOFile IOReason = iota
	// Malformed indicates structurally inconsistent serialized input.
	Malformed
	// UnknownProtocol indicates a protocol name with no registered codec.
	UnknownProtocol
	// Unsupported indicates an operation the protocol does not provide,
	// such as decoding a write-only dump format.
	Unsupported
)

// String returns the string representation of the reason.
func (r IOReason) String() string {
	switch r {
	case IOFile:
		return "file"
	case Malformed:
		return "malformed"
	case UnknownProtocol:
		return "unknown protocol"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// IOError reports a serialization or file failure. Load-side failures leave
// the target group exactly as it was before the call.
type IOError struct {
	Op     string
	Reason IOReason
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Reason, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Reason, e.Msg)
}

// Unwrap returns the underlying error, if any.
func (e *IOError) Unwrap() error { return e.Err }

// NewIOError constructs an IOError.
func NewIOError(op string, reason IOReason, msg string, err error) *IOError {
	return &IOError{Op: op, Reason: reason, Msg: msg, Err: err}
}

// IsIO reports whether err is (or wraps) an IOError.
func IsIO(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// IsMalformed reports whether err is an IOError with the Malformed reason.
func IsMalformed(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe) && ioe.Reason == Malformed
}
