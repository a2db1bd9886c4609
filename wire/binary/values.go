// Package binary implements the OMSP binary wire form: the per-value marshal codec
// (§4.1) and the frame codec with sync bytes, short/long promotion, and resync (§4.2).
package binary

import (
	"encoding/binary"
	"math"

	"github.com/mytestbed/oml/errs"
	"github.com/mytestbed/oml/value"
)

// Value tags, spec.md §4.1.
const (
	tagLong       byte = 1
	tagDouble     byte = 2
	tagDoubleNaN  byte = 3
	tagString     byte = 4
	tagInt32      byte = 5
	tagUInt32     byte = 6
	tagInt64      byte = 7
	tagUInt64     byte = 8
	tagBlob       byte = 9
	tagGuid       byte = 10
	tagBoolFalse  byte = 11
	tagBoolTrue   byte = 12
)

const maxStringLen = 254

// doubleScale is 2^30, the fixed-point scale used by the mantissa/exponent double encoding.
const doubleScale = 1 << 30

// MarshalValue appends the wire encoding of v to dst and returns the extended slice.
func MarshalValue(dst []byte, v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindDouble:
		return marshalDouble(dst, v.Double()), nil
	case value.KindInt32:
		dst = append(dst, tagInt32)
		return binary.BigEndian.AppendUint32(dst, uint32(v.Int32())), nil
	case value.KindUInt32:
		dst = append(dst, tagUInt32)
		return binary.BigEndian.AppendUint32(dst, v.UInt32()), nil
	case value.KindInt64:
		dst = append(dst, tagInt64)
		return binary.BigEndian.AppendUint64(dst, uint64(v.Int64())), nil
	case value.KindUInt64:
		dst = append(dst, tagUInt64)
		return binary.BigEndian.AppendUint64(dst, v.UInt64()), nil
	case value.KindString:
		return marshalString(dst, v.String())
	case value.KindBlob:
		b := v.Blob()
		dst = append(dst, tagBlob)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
		return append(dst, b...), nil
	case value.KindGuid:
		dst = append(dst, tagGuid)
		return binary.BigEndian.AppendUint64(dst, uint64(v.Guid())), nil
	case value.KindBool:
		if v.Bool() {
			return append(dst, tagBoolTrue), nil
		}
		return append(dst, tagBoolFalse), nil
	default:
		return dst, errs.ErrUnknownKind
	}
}

// MarshalLong appends the legacy Long encoding (int32, clamped) of v to dst.
func MarshalLong(dst []byte, v int64) []byte {
	dst = append(dst, tagLong)
	return binary.BigEndian.AppendUint32(dst, uint32(value.ClampInt32(v)))
}

func marshalString(dst []byte, s string) ([]byte, error) {
	if len(s) > maxStringLen {
		return dst, errs.ErrStringTooLong
	}
	dst = append(dst, tagString, byte(len(s)))
	return append(dst, s...), nil
}

// marshalDouble implements spec.md §4.1's mantissa/exponent encoding: v =
// mantissa*2^exp / 2^30, where exp is the raw frexp exponent stored as a
// signed byte on the wire (ground-truth marshal.c:523-539). When the raw
// exponent does not fit in a signed byte the value is emitted as DoubleNaN
// instead, per spec.
func marshalDouble(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, tagDoubleNaN, 0, 0, 0, 0, 0)
	}
	if v == 0 {
		dst = append(dst, tagDouble)
		dst = binary.BigEndian.AppendUint32(dst, 0)
		return append(dst, 0)
	}

	mantissa, exp := frexp30(v)
	if int(int8(exp)) != exp {
		return append(dst, tagDoubleNaN, 0, 0, 0, 0, 0)
	}

	dst = append(dst, tagDouble)
	dst = binary.BigEndian.AppendUint32(dst, uint32(mantissa))
	return append(dst, byte(int8(exp)))
}

// frexp30 decomposes v into an int32 mantissa and the raw frexp exponent such
// that v == mantissa * 2^exp / 2^30, with mantissa scaled to use the full
// int32 range.
func frexp30(v float64) (int32, int) {
	frac, exp := math.Frexp(v) // v == frac * 2^exp, 0.5 <= |frac| < 1
	scaled := frac * doubleScale

	return int32(math.Round(scaled)), exp
}

// UnmarshalValue decodes one value starting at src[0]. It returns the decoded value,
// the number of bytes consumed, and an error. A Long tag decodes to KindInt32 per
// spec.md §4.1 ("Decoding of Long produces an Int32 value").
func UnmarshalValue(src []byte) (value.Value, int, error) {
	if len(src) < 1 {
		return value.Value{}, 0, errs.ErrTruncatedValue
	}
	tag := src[0]
	body := src[1:]

	switch tag {
	case tagLong:
		if len(body) < 4 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		n := int32(binary.BigEndian.Uint32(body))
		return value.NewInt32(n), 5, nil
	case tagDouble:
		if len(body) < 5 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		mantissa := int32(binary.BigEndian.Uint32(body[0:4]))
		exp := int(int8(body[4]))
		v := ldexpMantissa(mantissa, exp)

		return value.NewDouble(v), 6, nil
	case tagDoubleNaN:
		if len(body) < 5 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewDouble(math.NaN()), 6, nil
	case tagString:
		if len(body) < 1 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		n := int(body[0])
		if len(body) < 1+n {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewString(string(body[1 : 1+n])), 2 + n, nil
	case tagInt32:
		if len(body) < 4 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewInt32(int32(binary.BigEndian.Uint32(body))), 5, nil
	case tagUInt32:
		if len(body) < 4 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewUInt32(binary.BigEndian.Uint32(body)), 5, nil
	case tagInt64:
		if len(body) < 8 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewInt64(int64(binary.BigEndian.Uint64(body))), 9, nil
	case tagUInt64:
		if len(body) < 8 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewUInt64(binary.BigEndian.Uint64(body)), 9, nil
	case tagBlob:
		if len(body) < 4 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		n := int(binary.BigEndian.Uint32(body[0:4]))
		if n < 0 || len(body) < 4+n {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewBlob(body[4 : 4+n]), 5 + n, nil
	case tagGuid:
		if len(body) < 8 {
			return value.Value{}, 0, errs.ErrTruncatedValue
		}
		return value.NewGuid(value.Guid(binary.BigEndian.Uint64(body))), 9, nil
	case tagBoolFalse:
		return value.NewBool(false), 1, nil
	case tagBoolTrue:
		return value.NewBool(true), 1, nil
	default:
		return value.Value{}, 0, errs.ErrUnknownTag
	}
}

// ldexpMantissa reverses frexp30: v = mantissa * 2^exp / 2^30.
func ldexpMantissa(mantissa int32, exp int) float64 {
	return math.Ldexp(float64(mantissa), exp) / doubleScale
}
