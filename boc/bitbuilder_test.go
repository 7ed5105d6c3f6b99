package boc

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitBuilderWriteIntSigned22Bit(t *testing.T) {
	bb := NewBitBuilder(32)
	require.NoError(t, bb.WriteInt(-44028, 22))
	bits := bb.Build()
	require.Equal(t, "FD5012_", bits.ToFiftHex())

	r := NewBitReader(bits)
	v, err := r.LoadInt(22)
	require.NoError(t, err)
	require.Equal(t, int64(-44028), v)
}

func TestBitBuilderWriteCoins(t *testing.T) {
	bb := NewBitBuilder(128)
	amount := big.NewInt(187657898555727)
	require.NoError(t, bb.WriteCoins(amount))
	bits := bb.Build()
	require.Equal(t, "6AAAC8261F94F", bits.ToFiftHex())

	r := NewBitReader(bits)
	v, err := r.LoadCoins()
	require.NoError(t, err)
	require.Equal(t, amount, v)
}

// An address's internal binary form, parsed from its known canonical hex,
// round-trips unchanged through LoadAddress/WriteAddress. The friendly base64
// address format this hex corresponds to lives above this layer.
func TestBitBuilderAddressRoundTrip(t *testing.T) {
	const wantHex = "9FE7B7EF20B09EFE4D5C2A53FE7AD57C2F43E51029201B28AF1D01A2B55CBFC90CB_"

	src, err := ParseBitString(wantHex)
	require.NoError(t, err)
	require.Equal(t, 267, src.Length())

	addr, err := NewBitReader(src).LoadAddress()
	require.NoError(t, err)
	require.Equal(t, int8(-1), addr.Workchain)

	bb := NewBitBuilder(267)
	require.NoError(t, bb.WriteAddress(addr))
	require.Equal(t, wantHex, bb.Build().ToFiftHex())
}

func TestBitBuilderUintRoundTrip(t *testing.T) {
	cases := []struct {
		value uint64
		bits  int
	}{
		{0, 1}, {1, 1}, {0xAA, 8}, {0x1FF, 9}, {12345, 16}, {0, 64}, {^uint64(0), 64},
	}
	for _, c := range cases {
		bb := NewBitBuilder(64)
		require.NoError(t, bb.WriteUint(c.value, c.bits))
		r := NewBitReader(bb.Build())
		got, err := r.LoadUint(c.bits)
		require.NoError(t, err)
		require.Equal(t, c.value, got)
	}
}

func TestBitBuilderIntRoundTrip(t *testing.T) {
	cases := []struct {
		value int64
		bits  int
	}{
		{0, 0}, {0, 1}, {-1, 1}, {-44028, 22}, {127, 8}, {-128, 8}, {0, 64}, {-1, 64},
	}
	for _, c := range cases {
		bb := NewBitBuilder(64)
		require.NoError(t, bb.WriteInt(c.value, c.bits))
		r := NewBitReader(bb.Build())
		got, err := r.LoadInt(c.bits)
		require.NoError(t, err)
		require.Equal(t, c.value, got)
	}
}

func TestBitBuilderOverflow(t *testing.T) {
	bb := NewBitBuilder(4)
	err := bb.WriteUint(0xFF, 8)
	require.ErrorIs(t, err, ErrBitOverflow)
}

func TestBitBuilderRangeError(t *testing.T) {
	bb := NewBitBuilder(8)
	err := bb.WriteUint(256, 8)
	require.ErrorIs(t, err, ErrRange)
}

func TestBitBuilderVarUintZero(t *testing.T) {
	bb := NewBitBuilder(16)
	require.NoError(t, bb.WriteVarUint(big.NewInt(0), 4))
	r := NewBitReader(bb.Build())
	v, err := r.LoadVarUint(4)
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int64())
}
