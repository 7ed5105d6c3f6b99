package boc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitStringToFiftHexExamples(t *testing.T) {
	cases := []struct {
		name string
		bits func() BitString
		want string
	}{
		{"empty", func() BitString { return Empty }, ""},
		{"one bit zero", func() BitString {
			bb := NewBitBuilder(1)
			_ = bb.WriteBit(false)
			return bb.Build()
		}, "4_"},
		{"one bit one", func() BitString {
			bb := NewBitBuilder(1)
			_ = bb.WriteBit(true)
			return bb.Build()
		}, "C_"},
		{"byte 0xAA", func() BitString {
			bb := NewBitBuilder(8)
			_ = bb.WriteUint(0xAA, 8)
			return bb.Build()
		}, "AA"},
		{"byte 0xAA plus one bit", func() BitString {
			bb := NewBitBuilder(9)
			_ = bb.WriteUint(0xAA, 8)
			_ = bb.WriteBit(true)
			return bb.Build()
		}, "AAC_"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.bits().ToFiftHex())
		})
	}
}

func TestBitStringHexRoundTrip(t *testing.T) {
	inputs := []string{"", "4_", "C_", "AA", "AAC_", "FD5012_", "6AAAC8261F94F"}
	for _, s := range inputs {
		bs, err := ParseBitString(s)
		require.NoError(t, err)
		require.Equal(t, s, bs.ToFiftHex())
	}
}

func TestBitStringSubstringAndSubbuffer(t *testing.T) {
	bb := NewBitBuilder(32)
	require.NoError(t, bb.WriteUint(0x12345678, 32))
	bits := bb.Build()

	sub, err := bits.Substring(8, 16)
	require.NoError(t, err)
	require.Equal(t, 16, sub.Length())

	buf, err := bits.Subbuffer(8, 16)
	require.NoError(t, err)
	require.Equal(t, []byte{0x34, 0x56}, buf)

	_, err = bits.Subbuffer(4, 16)
	require.ErrorIs(t, err, ErrNotAligned)

	empty, err := bits.Subbuffer(8, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{}, empty)
}

func TestBitStringEqual(t *testing.T) {
	a, err := ParseBitString("AAC_")
	require.NoError(t, err)
	b, err := ParseBitString("AAC_")
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	c, err := ParseBitString("AA")
	require.NoError(t, err)
	require.False(t, a.Equal(c))
}
