package boc

import (
	"fmt"
	"math/big"
)

// Slice is a read cursor over a Cell: a BitReader over its bits plus an independent
// cursor into its refs.
type Slice struct {
	reader     *BitReader
	refs       []*Cell
	offsetRefs int
}

// NewSlice opens a cursor over cell.
func NewSlice(cell *Cell) *Slice {
	return &Slice{reader: NewBitReader(cell.bits), refs: cell.refs}
}

func (s *Slice) RemainingBits() int { return s.reader.RemainingBits() }
func (s *Slice) RemainingRefs() int { return len(s.refs) - s.offsetRefs }

func (s *Slice) remainingRefs() []*Cell { return s.refs[s.offsetRefs:] }

func (s *Slice) skipAll() error {
	if err := s.reader.Skip(s.reader.RemainingBits()); err != nil {
		return err
	}
	s.offsetRefs = len(s.refs)
	return nil
}

func (s *Slice) LoadBit() (bool, error)                       { return s.reader.LoadBit() }
func (s *Slice) PreloadBit() (bool, error)                    { return s.reader.PreloadBit() }
func (s *Slice) LoadBits(n int) (BitString, error)            { return s.reader.LoadBits(n) }
func (s *Slice) PreloadBits(n int) (BitString, error)         { return s.reader.PreloadBits(n) }
func (s *Slice) LoadBuffer(n int) ([]byte, error)             { return s.reader.LoadBuffer(n) }
func (s *Slice) PreloadBuffer(n int) ([]byte, error)          { return s.reader.PreloadBuffer(n) }
func (s *Slice) LoadUint(bits int) (uint64, error)            { return s.reader.LoadUint(bits) }
func (s *Slice) PreloadUint(bits int) (uint64, error)         { return s.reader.PreloadUint(bits) }
func (s *Slice) LoadInt(bits int) (int64, error)              { return s.reader.LoadInt(bits) }
func (s *Slice) PreloadInt(bits int) (int64, error)           { return s.reader.PreloadInt(bits) }
func (s *Slice) LoadBigUint(bits int) (*big.Int, error)       { return s.reader.LoadBigUint(bits) }
func (s *Slice) PreloadBigUint(bits int) (*big.Int, error)    { return s.reader.PreloadBigUint(bits) }
func (s *Slice) LoadBigInt(bits int) (*big.Int, error)        { return s.reader.LoadBigInt(bits) }
func (s *Slice) PreloadBigInt(bits int) (*big.Int, error)     { return s.reader.PreloadBigInt(bits) }
func (s *Slice) LoadVarUint(headerBits int) (*big.Int, error) { return s.reader.LoadVarUint(headerBits) }
func (s *Slice) LoadVarInt(headerBits int) (*big.Int, error)  { return s.reader.LoadVarInt(headerBits) }
func (s *Slice) LoadCoins() (*big.Int, error)                 { return s.reader.LoadCoins() }
func (s *Slice) LoadBool() (bool, error)                      { return s.reader.LoadBit() }
func (s *Slice) LoadAddress() (*Address, error)               { return s.reader.LoadAddress() }
func (s *Slice) LoadAddressExt() (*Address, *ExtAddress, error) {
	return s.reader.LoadAddressExt()
}
func (s *Slice) Skip(n int) error { return s.reader.Skip(n) }

// LoadRef consumes the next child ref.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.offsetRefs >= len(s.refs) {
		return nil, fmt.Errorf("load ref: %w", ErrOutOfBounds)
	}
	ref := s.refs[s.offsetRefs]
	s.offsetRefs++
	return ref, nil
}

// PreloadRef previews the next child ref without consuming it.
func (s *Slice) PreloadRef() (*Cell, error) {
	if s.offsetRefs >= len(s.refs) {
		return nil, fmt.Errorf("preload ref: %w", ErrOutOfBounds)
	}
	return s.refs[s.offsetRefs], nil
}

// LoadMaybeRef reads a presence bit then, if set, a ref.
func (s *Slice) LoadMaybeRef() (*Cell, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return s.LoadRef()
}

// LoadStringTail is the dual of Builder.StoreStringTail.
func (s *Slice) LoadStringTail() (string, error) {
	buf, err := s.LoadBufferTail()
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// LoadBufferTail is the dual of Builder.StoreBufferTail: all remaining bytes in this
// cell, followed by the continuation cell's bytes if a ref remains.
func (s *Slice) LoadBufferTail() ([]byte, error) {
	n := s.RemainingBits() / 8
	buf, err := s.LoadBuffer(n)
	if err != nil {
		return nil, err
	}
	if s.RemainingRefs() == 0 {
		return buf, nil
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	rest, err := ref.BeginParse().LoadBufferTail()
	if err != nil {
		return nil, err
	}
	return append(buf, rest...), nil
}

// EndParse fails NotEmptySlice if any bit or ref remains.
func (s *Slice) EndParse() error {
	if s.RemainingBits() != 0 || s.RemainingRefs() != 0 {
		return fmt.Errorf("end parse: %d bits, %d refs left: %w", s.RemainingBits(), s.RemainingRefs(), ErrNotEmptySlice)
	}
	return nil
}

// AsCell builds a fresh Ordinary cell from the remaining bits and refs.
func (s *Slice) AsCell() (*Cell, error) {
	bits, err := s.PreloadBits(s.RemainingBits())
	if err != nil {
		return nil, err
	}
	return NewOrdinaryCell(bits, s.remainingRefs())
}

// AsBuilder copies the remaining bits and refs into a fresh Builder.
func (s *Slice) AsBuilder() (*Builder, error) {
	b := NewBuilder()
	bits, err := s.PreloadBits(s.RemainingBits())
	if err != nil {
		return nil, err
	}
	if err := b.StoreBits(bits); err != nil {
		return nil, err
	}
	for _, ref := range s.remainingRefs() {
		if err := b.StoreRef(ref); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Clone returns an independent cursor over the same cell, optionally rewound.
func (s *Slice) Clone(fromStart bool) *Slice {
	c := &Slice{reader: s.reader.Clone(fromStart), refs: s.refs, offsetRefs: s.offsetRefs}
	if fromStart {
		c.offsetRefs = 0
	}
	return c
}

// LoadMaybe reads a presence bit, then load(s) when set.
func LoadMaybe[T any](s *Slice, load func(*Slice) (T, error)) (*T, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := load(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// StoreMaybe writes a presence bit, then store(b, *v) when v is non-nil.
func StoreMaybe[T any](b *Builder, v *T, store func(*Builder, T) error) error {
	if v == nil {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return store(b, *v)
}
