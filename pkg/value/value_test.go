package value

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" U32 ")
	require.NoError(t, err)
	assert.Equal(t, U32, k)

	_, err = ParseKind("u128")
	assert.Error(t, err)
}

func TestEncodeIntegers(t *testing.T) {
	b, err := Encode(U32, "0x01020304")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), binary.NativeEndian.Uint32(b))

	b, err = Encode(U32, "1000000000")
	require.NoError(t, err)
	assert.Len(t, b, 4)
	assert.Equal(t, "1000000000", Decode(U32, b))

	b, err = Encode(I16, "-2")
	require.NoError(t, err)
	assert.Equal(t, uint16(0xfffe), binary.NativeEndian.Uint16(b))
}

func TestEncodeOutOfRange(t *testing.T) {
	_, err := Encode(U8, "256")
	assert.Error(t, err)

	_, err = Encode(I8, "-129")
	assert.Error(t, err)

	_, err = Encode(U16, "nope")
	assert.Error(t, err)
}

func TestRoundTripDecode(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		in   string
		out  string
	}{
		{U8, "255", "255"},
		{U16, "0xffff", "65535"},
		{U64, "18446744073709551615", "18446744073709551615"},
		{I8, "-128", "-128"},
		{I16, "-2", "-2"},
		{I32, "-1", "-1"},
		{I64, "-9000000000", "-9000000000"},
		{F32, "1.5", "1.5"},
		{F64, "-0.25", "-0.25"},
		{Str, "hi there", `"hi there"`},
		{Hex, "0xdeadbeef", "deadbeef"},
		{Hex, "de ad", "dead"},
	} {
		t.Run(string(tc.kind)+"/"+tc.in, func(t *testing.T) {
			b, err := Encode(tc.kind, tc.in)
			require.NoError(t, err)
			if w := tc.kind.Width(); w != 0 {
				assert.Len(t, b, w)
			}
			assert.Equal(t, tc.out, Decode(tc.kind, b))
		})
	}
}

func TestEncodeEmptyVariable(t *testing.T) {
	_, err := Encode(Str, "")
	assert.Error(t, err)

	_, err = Encode(Hex, "")
	assert.Error(t, err)

	_, err = Encode(Hex, "zz")
	assert.Error(t, err)
}

func TestDecodeWrongWidth(t *testing.T) {
	assert.Equal(t, "0102", Decode(U32, []byte{1, 2}))
}
