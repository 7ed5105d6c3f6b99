package dict

import (
	"math/bits"

	"github.com/mr-tron/tongo-boc/boc"
)

// lenFieldBits is the bit width of the length field used by hml_long and hml_same:
// the minimal width able to represent every value in [0, m].
func lenFieldBits(m int) int {
	return bits.Len(uint(m))
}

func isConstant(label boc.BitString) (bool, bool) {
	n := label.Length()
	if n == 0 {
		return true, false
	}
	first, _ := label.At(0)
	for i := 1; i < n; i++ {
		v, _ := label.At(i)
		if v != first {
			return false, false
		}
	}
	return true, first
}

// encodeLabel picks whichever of hml_short/hml_long/hml_same encodes label (a prefix
// of at most m bits) in the fewest bits, tie-breaking toward hml_same, then
// hml_short, then hml_long.
func encodeLabel(b *boc.Builder, label boc.BitString, m int) error {
	n := label.Length()
	lenBits := lenFieldBits(m)

	shortCost := 1 + (n + 1) + n
	longCost := 2 + lenBits + n
	same, sameBit := isConstant(label)
	sameCost := 2 + 1 + lenBits

	switch {
	case same && sameCost <= shortCost && sameCost <= longCost:
		return encodeSame(b, sameBit, n, lenBits)
	case shortCost <= longCost:
		return encodeShort(b, label, n)
	default:
		return encodeLong(b, label, n, lenBits)
	}
}

func encodeShort(b *boc.Builder, label boc.BitString, n int) error {
	if err := b.StoreBit(false); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := b.StoreBit(true); err != nil {
			return err
		}
	}
	if err := b.StoreBit(false); err != nil {
		return err
	}
	return b.StoreBits(label)
}

func encodeLong(b *boc.Builder, label boc.BitString, n, lenBits int) error {
	if err := b.StoreUint(0b10, 2); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(n), lenBits); err != nil {
		return err
	}
	return b.StoreBits(label)
}

func encodeSame(b *boc.Builder, v bool, n, lenBits int) error {
	if err := b.StoreUint(0b11, 2); err != nil {
		return err
	}
	if err := b.StoreBit(v); err != nil {
		return err
	}
	return b.StoreUint(uint64(n), lenBits)
}

// decodeLabel is the inverse of encodeLabel, dispatching on the leading one or two
// bits the way the three hml_* variants are tagged.
func decodeLabel(s *boc.Slice, m int) (boc.BitString, error) {
	first, err := s.LoadBit()
	if err != nil {
		return boc.BitString{}, err
	}
	if !first {
		n := 0
		for {
			bit, err := s.LoadBit()
			if err != nil {
				return boc.BitString{}, err
			}
			if !bit {
				break
			}
			n++
		}
		return s.LoadBits(n)
	}

	second, err := s.LoadBit()
	if err != nil {
		return boc.BitString{}, err
	}
	lenBits := lenFieldBits(m)
	if !second {
		n, err := s.LoadUint(lenBits)
		if err != nil {
			return boc.BitString{}, err
		}
		return s.LoadBits(int(n))
	}

	v, err := s.LoadBit()
	if err != nil {
		return boc.BitString{}, err
	}
	n, err := s.LoadUint(lenBits)
	if err != nil {
		return boc.BitString{}, err
	}
	bb := boc.NewBitBuilder(int(n))
	for i := 0; i < int(n); i++ {
		if err := bb.WriteBit(v); err != nil {
			return boc.BitString{}, err
		}
	}
	return bb.Build(), nil
}
