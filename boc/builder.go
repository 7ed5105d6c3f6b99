package boc

import (
	"fmt"
	"math/big"
)

// Builder is an append-only accumulator for a single Cell: an owned BitBuilder plus
// up to 4 child cells.
type Builder struct {
	bits *BitBuilder
	refs []*Cell
}

// NewBuilder starts an empty cell builder.
func NewBuilder() *Builder {
	return &Builder{bits: NewDefaultBitBuilder()}
}

func BeginCell() *Builder { return NewBuilder() }

func (b *Builder) AvailableBits() int { return b.bits.AvailableBits() }
func (b *Builder) AvailableRefs() int { return maxCellRefs - len(b.refs) }
func (b *Builder) BitsUsed() int      { return b.bits.Length() }
func (b *Builder) RefsUsed() int      { return len(b.refs) }

func (b *Builder) StoreBit(v bool) error           { return b.bits.WriteBit(v) }
func (b *Builder) StoreBits(src BitString) error   { return b.bits.WriteBits(src) }
func (b *Builder) StoreBuffer(data []byte) error   { return b.bits.WriteBuffer(data) }
func (b *Builder) StoreUint(v uint64, n int) error { return b.bits.WriteUint(v, n) }
func (b *Builder) StoreInt(v int64, n int) error   { return b.bits.WriteInt(v, n) }
func (b *Builder) StoreBigUint(v *big.Int, n int) error {
	return b.bits.WriteBigUint(v, n)
}
func (b *Builder) StoreBigInt(v *big.Int, n int) error {
	return b.bits.WriteBigInt(v, n)
}
func (b *Builder) StoreVarUint(v *big.Int, headerBits int) error {
	return b.bits.WriteVarUint(v, headerBits)
}
func (b *Builder) StoreVarInt(v *big.Int, headerBits int) error {
	return b.bits.WriteVarInt(v, headerBits)
}
func (b *Builder) StoreCoins(v *big.Int) error { return b.bits.WriteCoins(v) }
func (b *Builder) StoreBool(v bool) error      { return b.bits.WriteBit(v) }
func (b *Builder) StoreAddress(addr *Address) error {
	return b.bits.WriteAddress(addr)
}
func (b *Builder) StoreAddressExt(internal *Address, external *ExtAddress) error {
	return b.bits.WriteAddressExt(internal, external)
}

// StoreRef appends ref as a child cell.
func (b *Builder) StoreRef(ref *Cell) error {
	if ref == nil {
		return fmt.Errorf("store ref: ref is nil")
	}
	if len(b.refs) >= maxCellRefs {
		return fmt.Errorf("store ref: %w", ErrRefOverflow)
	}
	b.refs = append(b.refs, ref)
	return nil
}

// StoreMaybeRef stores a presence bit followed by ref when non-nil.
func (b *Builder) StoreMaybeRef(ref *Cell) error {
	if ref == nil {
		return b.StoreBit(false)
	}
	if len(b.refs) >= maxCellRefs {
		return fmt.Errorf("store maybe ref: %w", ErrRefOverflow)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return b.StoreRef(ref)
}

// StoreSlice copies every remaining bit and ref of src into b.
func (b *Builder) StoreSlice(src *Slice) error {
	bits, err := src.PreloadBits(src.RemainingBits())
	if err != nil {
		return err
	}
	if err := b.StoreBits(bits); err != nil {
		return err
	}
	for _, ref := range src.remainingRefs() {
		if err := b.StoreRef(ref); err != nil {
			return err
		}
	}
	return src.skipAll()
}

// StoreBuilder is equivalent to slicing src's finalized cell into b.
func (b *Builder) StoreBuilder(src *Builder) error {
	if len(b.refs)+len(src.refs) > maxCellRefs {
		return fmt.Errorf("store builder: %w", ErrRefOverflow)
	}
	if err := b.StoreBits(src.bits.Build()); err != nil {
		return err
	}
	b.refs = append(b.refs, src.refs...)
	return nil
}

// StoreStringTail UTF-8-encodes s and spills across refs when it doesn't fit,
// recursively storing the continuation in a single ref the way snake-byte cells do.
func (b *Builder) StoreStringTail(s string) error {
	return b.StoreBufferTail([]byte(s))
}

// StoreBufferTail packs as many bytes as AvailableBits()/8 allows, then stores the
// remainder in one continuation ref.
func (b *Builder) StoreBufferTail(data []byte) error {
	avail := b.AvailableBits() / 8
	if len(data) <= avail {
		return b.StoreBuffer(data)
	}
	if avail == 0 {
		if len(b.refs) >= maxCellRefs {
			return fmt.Errorf("store buffer tail: %w", ErrRefOverflow)
		}
		cont := NewBuilder()
		if err := cont.StoreBufferTail(data); err != nil {
			return err
		}
		contCell, err := cont.EndCell()
		if err != nil {
			return err
		}
		return b.StoreRef(contCell)
	}
	if err := b.StoreBuffer(data[:avail]); err != nil {
		return err
	}
	if len(b.refs) >= maxCellRefs {
		return fmt.Errorf("store buffer tail: %w", ErrRefOverflow)
	}
	cont := NewBuilder()
	if err := cont.StoreBufferTail(data[avail:]); err != nil {
		return err
	}
	contCell, err := cont.EndCell()
	if err != nil {
		return err
	}
	return b.StoreRef(contCell)
}

// EndCell finalizes the builder into an Ordinary cell.
func (b *Builder) EndCell() (*Cell, error) {
	return NewOrdinaryCell(b.bits.Build(), b.refs)
}

// EndExoticCell finalizes the builder into an exotic cell.
func (b *Builder) EndExoticCell() (*Cell, error) {
	return NewExoticCell(b.bits.Build(), b.refs)
}

// MustEndCell panics on error, for call sites building literal/known-good cells.
func (b *Builder) MustEndCell() *Cell {
	c, err := b.EndCell()
	if err != nil {
		panic(err)
	}
	return c
}

// Copy returns an independent builder with the same bits and refs so far.
func (b *Builder) Copy() *Builder {
	nb := NewBuilder()
	bs := b.bits.Build()
	_ = nb.StoreBits(bs)
	nb.refs = append([]*Cell{}, b.refs...)
	return nb
}
