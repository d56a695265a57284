package core

// IndexType is the stable identifier for buffers inside a data store. Indices
// are assigned by the store's arena and remain valid for the lifetime of the
// buffer they name.
type IndexType = int64

// InvalidIndex is the sentinel returned when no valid buffer index exists.
const InvalidIndex IndexType = -1

// TypeID enumerates the element types a buffer or view can hold.
type TypeID int

const (
	// NoType indicates an undescribed buffer or view.
	NoType TypeID = iota
	// Int8 is a signed 8-bit integer element type.
	Int8
	// Int16 is a signed 16-bit integer element type.
	Int16
	// Int32 is a signed 32-bit integer element type.
	Int32
	// Int64 is a signed 64-bit integer element type.
	Int64
	// UInt8 is an unsigned 8-bit integer element type.
	UInt8
	// UInt16 is an unsigned 16-bit integer element type.
	UInt16
	// UInt32 is an unsigned 32-bit integer element type.
	UInt32
	// UInt64 is an unsigned 64-bit integer element type.
	UInt64
	// Float32 is a 32-bit IEEE-754 element type.
	Float32
	// Float64 is a 64-bit IEEE-754 element type.
	Float64
	// Char8Str marks string-valued views. It is never a buffer element type.
	Char8Str
)

// BytesPerElement returns the size of a single element of the type, or 0 for
// NoType and Char8Str.
func (t TypeID) BytesPerElement() int64 {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// IsNumeric reports whether the type is a fixed-width numeric element type.
func (t TypeID) IsNumeric() bool {
	return t >= Int8 && t <= Float64
}

// String returns the lower-case name of the type.
func (t TypeID) String() string {
	switch t {
	case NoType:
		return "notype"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Char8Str:
		return "char8_str"
	default:
		return "unknown"
	}
}

// ParseTypeID maps a type name produced by TypeID.String back to its TypeID.
// Unknown names map to NoType with ok == false.
func ParseTypeID(s string) (TypeID, bool) {
	for t := NoType; t <= Char8Str; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return NoType, false
}
