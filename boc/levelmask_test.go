package boc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelMaskDerivedFields(t *testing.T) {
	cases := []struct {
		mask      uint
		level     int
		hashIndex int
		hashCount int
	}{
		{0b000, 0, 0, 1},
		{0b001, 1, 1, 2},
		{0b011, 2, 2, 3},
		{0b111, 3, 3, 4},
		{0b100, 3, 1, 2},
	}
	for _, c := range cases {
		m := NewLevelMask(c.mask)
		require.Equal(t, c.level, m.Level())
		require.Equal(t, c.hashIndex, m.HashIndex())
		require.Equal(t, c.hashCount, m.HashCount())
	}
}

func TestLevelMaskApplyAndSignificant(t *testing.T) {
	m := NewLevelMask(0b111)
	require.Equal(t, uint(0b011), m.Apply(2).Value())
	require.True(t, m.IsSignificant(0))
	require.True(t, m.IsSignificant(1))

	zero := NewLevelMask(0)
	require.True(t, zero.IsSignificant(0))
	require.False(t, zero.IsSignificant(1))
}

func TestLevelMaskOr(t *testing.T) {
	a := NewLevelMask(0b001)
	b := NewLevelMask(0b010)
	require.Equal(t, uint(0b011), a.Or(b).Value())
}

func TestLevelMaskTruncatesToThreeBits(t *testing.T) {
	m := NewLevelMask(0xFF)
	require.Equal(t, uint(0b111), m.Value())
}
