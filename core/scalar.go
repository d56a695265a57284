package core

import "math"

// ScalarBits maps a Go numeric value onto its TypeID and 64-bit encoding.
// Untyped Go ints map to Int64, uints to UInt64. ok is false for non-numeric
// values.
func ScalarBits(value any) (TypeID, uint64, bool) {
	switch v := value.(type) {
	case int8:
		return Int8, uint64(v), true
	case int16:
		return Int16, uint64(v), true
	case int32:
		return Int32, uint64(v), true
	case int64:
		return Int64, uint64(v), true
	case int:
		return Int64, uint64(v), true
	case uint8:
		return UInt8, uint64(v), true
	case uint16:
		return UInt16, uint64(v), true
	case uint32:
		return UInt32, uint64(v), true
	case uint64:
		return UInt64, v, true
	case uint:
		return UInt64, uint64(v), true
	case float32:
		return Float32, uint64(math.Float32bits(v)), true
	case float64:
		return Float64, math.Float64bits(v), true
	default:
		return NoType, 0, false
	}
}

// ScalarValue reverses ScalarBits, producing the Go value of the scalar's
// declared type.
func ScalarValue(t TypeID, bits uint64) any {
	switch t {
	case Int8:
		return int8(bits)
	case Int16:
		return int16(bits)
	case Int32:
		return int32(bits)
	case Int64:
		return int64(bits)
	case UInt8:
		return uint8(bits)
	case UInt16:
		return uint16(bits)
	case UInt32:
		return uint32(bits)
	case UInt64:
		return bits
	case Float32:
		return math.Float32frombits(uint32(bits))
	case Float64:
		return math.Float64frombits(bits)
	default:
		return nil
	}
}
