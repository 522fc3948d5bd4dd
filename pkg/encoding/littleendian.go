// Package encoding provides the little-endian scalar codec used by the BT3 file formats.
package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Codec errors.
var (
	ErrEncodingRange = errors.New("value out of encodable range")
	ErrShortBuffer   = errors.New("short buffer")
)

// RangeError reports a value that does not fit the requested encoding.
type RangeError struct {
	Kind  string // "u8", "u16", "u32" or "f32"
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s does not fit %s", ErrEncodingRange, e.Value, e.Kind)
}

// Unwrap lets errors.Is match ErrEncodingRange.
func (e *RangeError) Unwrap() error {
	return ErrEncodingRange
}

func rangeErr(kind string, v uint64) error {
	return &RangeError{Kind: kind, Value: fmt.Sprintf("%d", v)}
}

// AppendU8 appends v as a single byte.
func AppendU8(b []byte, v uint64) ([]byte, error) {
	if v > math.MaxUint8 {
		return b, rangeErr("u8", v)
	}
	return append(b, byte(v)), nil
}

// AppendU16 appends v as a little-endian 16-bit word.
func AppendU16(b []byte, v uint64) ([]byte, error) {
	if v > math.MaxUint16 {
		return b, rangeErr("u16", v)
	}
	return binary.LittleEndian.AppendUint16(b, uint16(v)), nil
}

// AppendU32 appends v as a little-endian 32-bit word.
func AppendU32(b []byte, v uint64) ([]byte, error) {
	if v > math.MaxUint32 {
		return b, rangeErr("u32", v)
	}
	return binary.LittleEndian.AppendUint32(b, uint32(v)), nil
}

// AppendU64 appends v as a little-endian 64-bit word. Every uint64 fits.
func AppendU64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// AppendF32 appends the IEEE-754 bits of v. The bits are written as-is so
// NaN payloads survive a round trip.
func AppendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

// PutU8 encodes v as one byte.
func PutU8(v uint64) ([]byte, error) { return AppendU8(nil, v) }

// PutU16 encodes v as two little-endian bytes.
func PutU16(v uint64) ([]byte, error) { return AppendU16(nil, v) }

// PutU32 encodes v as four little-endian bytes.
func PutU32(v uint64) ([]byte, error) { return AppendU32(nil, v) }

// PutU64 encodes v as eight little-endian bytes.
func PutU64(v uint64) []byte { return AppendU64(nil, v) }

// PutF32 encodes v as a little-endian float32. Finite values beyond the
// float32 range are rejected; NaN and infinities pass through.
func PutF32(v float64) ([]byte, error) {
	if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
		return nil, &RangeError{Kind: "f32", Value: fmt.Sprintf("%g", v)}
	}
	return AppendF32(nil, float32(v)), nil
}

func need(b []byte, n int) error {
	if len(b) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(b))
	}
	return nil
}

// U8 decodes the first byte of b.
func U8(b []byte) (uint8, error) {
	if err := need(b, 1); err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 decodes a little-endian uint16 from the start of b.
func U16(b []byte) (uint16, error) {
	if err := need(b, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 decodes a little-endian uint32 from the start of b.
func U32(b []byte) (uint32, error) {
	if err := need(b, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 decodes a little-endian uint64 from the start of b.
func U64(b []byte) (uint64, error) {
	if err := need(b, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// F32 decodes a little-endian float32 from the start of b.
func F32(b []byte) (float32, error) {
	bits, err := U32(b)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}
