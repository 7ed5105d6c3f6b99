package boc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreStringTailSpillsAcrossRefs(t *testing.T) {
	// 300 bytes exceed one cell's 127-byte payload twice over, forcing a
	// two-deep continuation chain.
	src := strings.Repeat("Lorem ipsum ", 25)

	b := NewBuilder()
	require.NoError(t, b.StoreStringTail(src))
	cell, err := b.EndCell()
	require.NoError(t, err)
	require.Equal(t, 1, cell.RefsSize())

	got, err := cell.BeginParse().LoadStringTail()
	require.NoError(t, err)
	require.Equal(t, src, got)
}

func TestStoreStringTailShortFitsInline(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreStringTail("hello"))
	cell, err := b.EndCell()
	require.NoError(t, err)
	require.Equal(t, 0, cell.RefsSize())

	got, err := cell.BeginParse().LoadStringTail()
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestStoreSliceCopiesBitsAndRefs(t *testing.T) {
	inner := NewBuilder()
	require.NoError(t, inner.StoreUint(0xBEEF, 16))
	require.NoError(t, inner.StoreRef(u32Cell(t, 5)))
	src, err := inner.EndCell()
	require.NoError(t, err)

	b := NewBuilder()
	require.NoError(t, b.StoreUint(1, 8))
	require.NoError(t, b.StoreSlice(src.BeginParse()))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.BeginParse()
	v, err := s.LoadUint(8)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)
	v, err = s.LoadUint(16)
	require.NoError(t, err)
	require.Equal(t, uint64(0xBEEF), v)
	ref, err := s.LoadRef()
	require.NoError(t, err)
	require.True(t, ref.Equal(u32Cell(t, 5)))
	require.NoError(t, s.EndParse())
}

func TestStoreBuilderMatchesStoreSlice(t *testing.T) {
	inner := NewBuilder()
	require.NoError(t, inner.StoreUint(7, 4))
	require.NoError(t, inner.StoreRef(EmptyCell()))

	viaBuilder := NewBuilder()
	require.NoError(t, viaBuilder.StoreBuilder(inner))
	a, err := viaBuilder.EndCell()
	require.NoError(t, err)

	innerCell, err := inner.EndCell()
	require.NoError(t, err)
	viaSlice := NewBuilder()
	require.NoError(t, viaSlice.StoreSlice(innerCell.BeginParse()))
	b, err := viaSlice.EndCell()
	require.NoError(t, err)

	require.True(t, a.Equal(b))
}

func TestLoadMaybeRef(t *testing.T) {
	inner := u32Cell(t, 9)

	b := NewBuilder()
	require.NoError(t, b.StoreMaybeRef(nil))
	require.NoError(t, b.StoreMaybeRef(inner))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.BeginParse()
	none, err := s.LoadMaybeRef()
	require.NoError(t, err)
	require.Nil(t, none)
	got, err := s.LoadMaybeRef()
	require.NoError(t, err)
	require.True(t, got.Equal(inner))
}

func TestLoadMaybeStoreMaybe(t *testing.T) {
	v := uint64(0xCAFE)
	b := NewBuilder()
	require.NoError(t, StoreMaybe(b, &v, func(b *Builder, v uint64) error {
		return b.StoreUint(v, 16)
	}))
	require.NoError(t, StoreMaybe[uint64](b, nil, func(b *Builder, v uint64) error {
		return b.StoreUint(v, 16)
	}))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.BeginParse()
	got, err := LoadMaybe(s, func(s *Slice) (uint64, error) { return s.LoadUint(16) })
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, v, *got)
	missing, err := LoadMaybe(s, func(s *Slice) (uint64, error) { return s.LoadUint(16) })
	require.NoError(t, err)
	require.Nil(t, missing)
	require.NoError(t, s.EndParse())
}

func TestSliceAsBuilderAndAsCell(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreUint(0x1234, 16))
	require.NoError(t, b.StoreRef(u32Cell(t, 1)))
	cell, err := b.EndCell()
	require.NoError(t, err)

	s := cell.BeginParse()
	_, err = s.LoadUint(8)
	require.NoError(t, err)

	rest, err := s.AsCell()
	require.NoError(t, err)
	require.Equal(t, 8, rest.BitSize())
	require.Equal(t, 1, rest.RefsSize())

	nb, err := s.AsBuilder()
	require.NoError(t, err)
	rebuilt, err := nb.EndCell()
	require.NoError(t, err)
	require.True(t, rest.Equal(rebuilt))
}

func TestSliceCloneFromStartRewinds(t *testing.T) {
	cell := u32Cell(t, 0xDEADBEEF)
	s := cell.BeginParse()
	_, err := s.LoadUint(16)
	require.NoError(t, err)

	rewound := s.Clone(true)
	require.Equal(t, 32, rewound.RemainingBits())
	v, err := rewound.LoadUint(32)
	require.NoError(t, err)
	require.Equal(t, uint64(0xDEADBEEF), v)

	inPlace := s.Clone(false)
	require.Equal(t, 16, inPlace.RemainingBits())
}
