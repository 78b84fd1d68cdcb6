// Package value encodes the typed values accepted on the command line into
// the raw bytes the scanner compares, using the host byte order.
package value

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind string

const (
	U8  Kind = "u8"
	U16 Kind = "u16"
	U32 Kind = "u32"
	U64 Kind = "u64"
	I8  Kind = "i8"
	I16 Kind = "i16"
	I32 Kind = "i32"
	I64 Kind = "i64"
	F32 Kind = "f32"
	F64 Kind = "f64"
	Str Kind = "str"
	Hex Kind = "hex"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{U8, U16, U32, U64, I8, I16, I32, I64, F32, F64, Str, Hex}

// ParseKind resolves a kind name, ignoring case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown value kind %q", s)
}

// Width returns the encoded size of fixed-width kinds, 0 for str and hex.
func (k Kind) Width() int {
	switch k {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	}
	return 0
}

func (k Kind) bits() int {
	return k.Width() * 8
}

// Encode parses s as a value of kind k.
func Encode(k Kind, s string) ([]byte, error) {
	switch k {
	case U8, U16, U32, U64:
		v, err := strconv.ParseUint(s, 0, k.bits())
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", k, s, err)
		}
		return putUint(k, v), nil

	case I8, I16, I32, I64:
		v, err := strconv.ParseInt(s, 0, k.bits())
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", k, s, err)
		}
		return putUint(k, uint64(v)), nil

	case F32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", k, s, err)
		}
		return binary.NativeEndian.AppendUint32(nil, math.Float32bits(float32(v))), nil

	case F64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", k, s, err)
		}
		return binary.NativeEndian.AppendUint64(nil, math.Float64bits(v)), nil

	case Str:
		if s == "" {
			return nil, fmt.Errorf("str: empty value")
		}
		return []byte(s), nil

	case Hex:
		b, err := hex.DecodeString(strings.ReplaceAll(strings.TrimPrefix(s, "0x"), " ", ""))
		if err != nil {
			return nil, fmt.Errorf("hex %q: %w", s, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("hex: empty value")
		}
		return b, nil
	}

	return nil, fmt.Errorf("unknown value kind %q", k)
}

func putUint(k Kind, v uint64) []byte {
	switch k.Width() {
	case 1:
		return []byte{byte(v)}
	case 2:
		return binary.NativeEndian.AppendUint16(nil, uint16(v))
	case 4:
		return binary.NativeEndian.AppendUint32(nil, uint32(v))
	}
	return binary.NativeEndian.AppendUint64(nil, v)
}

// Decode renders b as kind k. Inputs of the wrong width fall back to hex.
func Decode(k Kind, b []byte) string {
	if w := k.Width(); w != 0 && len(b) != w {
		return hex.EncodeToString(b)
	}

	switch k {
	case U8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case U16:
		return strconv.FormatUint(uint64(binary.NativeEndian.Uint16(b)), 10)
	case U32:
		return strconv.FormatUint(uint64(binary.NativeEndian.Uint32(b)), 10)
	case U64:
		return strconv.FormatUint(binary.NativeEndian.Uint64(b), 10)
	case I8:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case I16:
		return strconv.FormatInt(int64(int16(binary.NativeEndian.Uint16(b))), 10)
	case I32:
		return strconv.FormatInt(int64(int32(binary.NativeEndian.Uint32(b))), 10)
	case I64:
		return strconv.FormatInt(int64(binary.NativeEndian.Uint64(b)), 10)
	case F32:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.NativeEndian.Uint32(b))), 'g', -1, 32)
	case F64:
		return strconv.FormatFloat(math.Float64frombits(binary.NativeEndian.Uint64(b)), 'g', -1, 64)
	case Str:
		return strconv.Quote(string(b))
	}
	return hex.EncodeToString(b)
}
