// Package value implements OmlValue, the tagged union carried by every OML tuple.
//
// A Value must always be constructed through one of the New* functions; the zero
// Value is not a valid Double, it is simply uninitialized and every accessor on it
// panics. Strings and blobs are variable-length payloads: a string is either owned
// (its bytes copied in) or borrowed from a constant region (the literal passed to
// NewBorrowedString, which the caller promises outlives the Value); a blob is always
// owned. Clone deep-copies owned payloads so that two Values never alias the same
// backing array.
package value

import (
	"fmt"
	"math"

	"github.com/mytestbed/oml/errs"
)

// Kind identifies which variant of the tagged union a Value holds.
//
// Legacy "Long" values from the wire are normalized to KindInt32 on decode (see
// wire/binary and wire/text); there is no KindLong constant because nothing in the
// in-memory model ever needs to distinguish the two once decoded.
type Kind uint8

const (
	KindDouble Kind = iota + 1
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindString
	KindBlob
	KindGuid
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindInt32:
		return "int32"
	case KindUInt32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUInt64:
		return "uint64"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindGuid:
		return "guid"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Guid is a 64-bit opaque identifier. The value 0 is reserved to mean "no guid".
type Guid uint64

// Value is the tagged union carried by every OML tuple field.
type Value struct {
	kind     Kind
	num      uint64 // bit pattern for double/int32/uint32/int64/uint64/bool/guid
	str      string // payload for KindString
	blob     []byte // payload for KindBlob, always owned
	borrowed bool   // true if str is borrowed from a const region rather than owned
	valid    bool
}

// NewDouble returns a Value holding a float64.
func NewDouble(v float64) Value { return Value{kind: KindDouble, num: math.Float64bits(v), valid: true} }

// NewInt32 returns a Value holding an int32.
func NewInt32(v int32) Value { return Value{kind: KindInt32, num: uint64(uint32(v)), valid: true} }

// NewUInt32 returns a Value holding a uint32.
func NewUInt32(v uint32) Value { return Value{kind: KindUInt32, num: uint64(v), valid: true} }

// NewInt64 returns a Value holding an int64.
func NewInt64(v int64) Value { return Value{kind: KindInt64, num: uint64(v), valid: true} }

// NewUInt64 returns a Value holding a uint64.
func NewUInt64(v uint64) Value { return Value{kind: KindUInt64, num: v, valid: true} }

// NewBool returns a Value holding a bool.
func NewBool(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n, valid: true}
}

// NewGuid returns a Value holding a Guid.
func NewGuid(v Guid) Value { return Value{kind: KindGuid, num: uint64(v), valid: true} }

// NewString returns a Value owning a copy of s.
func NewString(s string) Value {
	return Value{kind: KindString, str: s, valid: true}
}

// NewBorrowedString returns a Value referencing s without copying it.
//
// The caller promises s outlives the Value and every clone of it (Clone does not
// copy a borrowed string). Used for literal field names and other
// constants where a copy on every injected row would be wasted allocation.
func NewBorrowedString(s string) Value {
	return Value{kind: KindString, str: s, borrowed: true, valid: true}
}

// NewBlob returns a Value owning a copy of b.
func NewBlob(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)

	return Value{kind: KindBlob, blob: owned, valid: true}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was constructed through one of the New* functions.
func (v Value) IsValid() bool { return v.valid }

func (v Value) mustKind(k Kind) {
	if !v.valid {
		panic(fmt.Sprintf("oml/value: %v", errs.ErrNotInitialized))
	}
	if v.kind != k {
		panic(fmt.Sprintf("oml/value: value holds %s, not %s", v.kind, k))
	}
}

// Double returns the float64 held by v. Panics if v does not hold KindDouble.
func (v Value) Double() float64 {
	v.mustKind(KindDouble)
	return math.Float64frombits(v.num)
}

// Int32 returns the int32 held by v. Panics if v does not hold KindInt32.
func (v Value) Int32() int32 {
	v.mustKind(KindInt32)
	return int32(uint32(v.num))
}

// UInt32 returns the uint32 held by v. Panics if v does not hold KindUInt32.
func (v Value) UInt32() uint32 {
	v.mustKind(KindUInt32)
	return uint32(v.num)
}

// Int64 returns the int64 held by v. Panics if v does not hold KindInt64.
func (v Value) Int64() int64 {
	v.mustKind(KindInt64)
	return int64(v.num)
}

// UInt64 returns the uint64 held by v. Panics if v does not hold KindUInt64.
func (v Value) UInt64() uint64 {
	v.mustKind(KindUInt64)
	return v.num
}

// Bool returns the bool held by v. Panics if v does not hold KindBool.
func (v Value) Bool() bool {
	v.mustKind(KindBool)
	return v.num != 0
}

// Guid returns the Guid held by v. Panics if v does not hold KindGuid.
func (v Value) Guid() Guid {
	v.mustKind(KindGuid)
	return Guid(v.num)
}

// String returns the string held by v. Panics if v does not hold KindString.
func (v Value) String() string {
	v.mustKind(KindString)
	return v.str
}

// Blob returns the byte slice held by v. Panics if v does not hold KindBlob.
//
// The returned slice is owned by v; callers must not retain it past a Clone or
// mutate it in place.
func (v Value) Blob() []byte {
	v.mustKind(KindBlob)
	return v.blob
}

// IsNumeric reports whether v's kind participates in numeric filters (avg, etc).
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindDouble, KindInt32, KindUInt32, KindInt64, KindUInt64:
		return true
	default:
		return false
	}
}

// Float64 returns v's numeric value widened to float64. Panics if v is not numeric.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindDouble:
		return v.Double()
	case KindInt32:
		return float64(v.Int32())
	case KindUInt32:
		return float64(v.UInt32())
	case KindInt64:
		return float64(v.Int64())
	case KindUInt64:
		return float64(v.UInt64())
	default:
		panic(fmt.Sprintf("oml/value: %s is not numeric", v.kind))
	}
}

// Clone deep-copies v so the result shares no mutable backing storage with v.
//
// Borrowed strings are not copied (they are, by contract, immutable for as long as
// any clone is alive); owned blobs are copied byte-for-byte.
func (v Value) Clone() Value {
	if v.kind != KindBlob || v.blob == nil {
		return v
	}
	out := v
	out.blob = make([]byte, len(v.blob))
	copy(out.blob, v.blob)

	return out
}

// ClampInt32 clamps a legacy 64-bit "Long" into the int32 range, matching the wire
// codec's Long→Int32 decode behavior (spec: legacy Long is clamped on output/decode).
func ClampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}
