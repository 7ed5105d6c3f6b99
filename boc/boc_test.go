package boc

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

// A cell reused by two siblings must still compare equal (same hash) and carry the
// same payload after a full serialize/deserialize round trip.
func TestBocSharedRefRoundTrip(t *testing.T) {
	shared := u32Cell(t, 42)

	child1 := NewBuilder()
	require.NoError(t, child1.StoreUint(1, 8))
	require.NoError(t, child1.StoreRef(shared))
	c1, err := child1.EndCell()
	require.NoError(t, err)

	child2 := NewBuilder()
	require.NoError(t, child2.StoreUint(2, 8))
	require.NoError(t, child2.StoreRef(shared))
	c2, err := child2.EndCell()
	require.NoError(t, err)

	parent := NewBuilder()
	require.NoError(t, parent.StoreRef(c1))
	require.NoError(t, parent.StoreRef(c2))
	root, err := parent.EndCell()
	require.NoError(t, err)

	data, err := root.ToBocCustom(true, true, false, 0)
	require.NoError(t, err)

	roots, err := DeserializeBoc(data)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	gotParent := roots[0]
	require.Equal(t, root.Hash(), gotParent.Hash())
	require.Len(t, gotParent.Refs(), 2)

	grandLeft := gotParent.Refs()[0].Refs()[0]
	grandRight := gotParent.Refs()[1].Refs()[0]
	require.True(t, grandLeft.Equal(grandRight))

	v, err := grandLeft.BeginParse().LoadUint(32)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)
}

func TestBocRoundTripAllOptionCombinations(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.StoreUint(0xDEADBEEF, 32))
	require.NoError(t, b.StoreRef(u32Cell(t, 1)))
	root, err := b.EndCell()
	require.NoError(t, err)

	for _, hasIdx := range []bool{false, true} {
		for _, hasCrc := range []bool{false, true} {
			data, err := root.ToBocCustom(hasIdx, hasCrc, false, 0)
			require.NoError(t, err)
			roots, err := DeserializeBoc(data)
			require.NoError(t, err)
			require.Len(t, roots, 1)
			require.Equal(t, root.Hash(), roots[0].Hash())
		}
	}
}

func TestBocDeterminism(t *testing.T) {
	build := func() *Cell {
		b := NewBuilder()
		_ = b.StoreUint(7, 16)
		_ = b.StoreRef(u32Cell(t, 99))
		c, _ := b.EndCell()
		return c
	}
	a := build()
	b := build()

	bocA, err := a.ToBocCustom(true, true, false, 0)
	require.NoError(t, err)
	bocB, err := b.ToBocCustom(true, true, false, 0)
	require.NoError(t, err)
	require.Equal(t, bocA, bocB)
}

// A StateInit-shaped cell (split_depth absent, special absent, code and data present
// as refs, no libraries) serialized without an index and with a CRC-32C trailer must
// match the known BoC bytes.
func TestBocStateInitGolden(t *testing.T) {
	code := u8Cell(t, 1)
	data := u8Cell(t, 2)

	b := NewBuilder()
	require.NoError(t, b.StoreBit(false)) // no split_depth
	require.NoError(t, b.StoreBit(false)) // no special
	require.NoError(t, b.StoreMaybeRef(code))
	require.NoError(t, b.StoreMaybeRef(data))
	require.NoError(t, b.StoreBit(false)) // empty library HashmapE
	root, err := b.EndCell()
	require.NoError(t, err)

	got, err := root.ToBocBase64Custom(false, true, false, 0)
	require.NoError(t, err)
	require.Equal(t, "te6cckEBAwEACwACATQBAgACAQACAoN/wQo=", got)

	roots, err := DeserializeBocBase64(got)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, root.Hash(), roots[0].Hash())
}

// legacyEmptyCellBoc hand-builds the minimal legacy-magic BoC: one empty cell,
// sizeBytes=1, offsetBytes=1, an always-present index, and (for the CRC variant) a
// little-endian CRC-32C trailer.
func legacyEmptyCellBoc(magic [4]byte, withCrc bool) []byte {
	data := append([]byte{}, magic[:]...)
	data = append(data,
		0x01,       // sizeBytes
		0x01,       // offsetBytes
		0x01,       // cellsNum
		0x01,       // rootsNum
		0x00,       // absent
		0x02,       // totalCellSize
		0x02,       // index: cumulative size of cell 0
		0x00, 0x00, // cell 0: d1, d2
	)
	if withCrc {
		crc := crc32.Checksum(data, crcTable)
		crcBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(crcBuf, crc)
		data = append(data, crcBuf...)
	}
	return data
}

func TestBocLegacyMagicNoCrc(t *testing.T) {
	roots, err := DeserializeBoc(legacyEmptyCellBoc(leanBocMagic, false))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.True(t, roots[0].Equal(EmptyCell()))
}

func TestBocLegacyMagicWithCrc(t *testing.T) {
	roots, err := DeserializeBoc(legacyEmptyCellBoc(leanBocMagicCR, true))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.True(t, roots[0].Equal(EmptyCell()))
}

func TestBocCrcMismatch(t *testing.T) {
	root := u32Cell(t, 1)
	data, err := root.ToBocCustom(false, true, false, 0)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	_, err = DeserializeBoc(data)
	require.ErrorIs(t, err, ErrInvalidCrc)
}

func TestBocUnknownMagic(t *testing.T) {
	_, err := DeserializeBoc([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05})
	require.ErrorIs(t, err, ErrInvalidBocHeader)
}

func TestBocTruncated(t *testing.T) {
	root := u32Cell(t, 1)
	data, err := root.ToBocCustom(false, false, false, 0)
	require.NoError(t, err)
	_, err = DeserializeBoc(data[:len(data)-3])
	require.ErrorIs(t, err, ErrInvalidBocHeader)
}

func u8Cell(t *testing.T, v uint8) *Cell {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.StoreUint(uint64(v), 8))
	c, err := b.EndCell()
	require.NoError(t, err)
	return c
}
