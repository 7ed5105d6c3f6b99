package boc

import (
	"fmt"
	"math/big"
)

const defaultBitBuilderCapacity = 1023

// BitBuilder is a mutable, append-only, fixed-capacity bit sequence. Build finalizes
// it into an immutable BitString.
type BitBuilder struct {
	buf          []byte
	length       int
	capacityBits int
}

// NewBitBuilder allocates a builder with the given bit capacity.
func NewBitBuilder(capacityBits int) *BitBuilder {
	if capacityBits <= 0 {
		capacityBits = defaultBitBuilderCapacity
	}
	return &BitBuilder{
		buf:          make([]byte, (capacityBits+7)/8),
		capacityBits: capacityBits,
	}
}

// NewDefaultBitBuilder matches a cell's maximum 1023-bit payload.
func NewDefaultBitBuilder() *BitBuilder {
	return NewBitBuilder(defaultBitBuilderCapacity)
}

func (b *BitBuilder) Length() int        { return b.length }
func (b *BitBuilder) AvailableBits() int { return b.capacityBits - b.length }
func (b *BitBuilder) Capacity() int      { return b.capacityBits }

func (b *BitBuilder) writeBitUnchecked(v bool) {
	setBit(b.buf, b.length, v)
	b.length++
}

// WriteBit appends a single bit.
func (b *BitBuilder) WriteBit(v bool) error {
	if b.length+1 > b.capacityBits {
		return fmt.Errorf("write bit: %w", ErrBitOverflow)
	}
	b.writeBitUnchecked(v)
	return nil
}

// WriteBits appends every bit of src in order.
func (b *BitBuilder) WriteBits(src BitString) error {
	if b.length+src.Length() > b.capacityBits {
		return fmt.Errorf("write bits: %w", ErrBitOverflow)
	}
	for i := 0; i < src.Length(); i++ {
		bit, _ := src.At(i)
		b.writeBitUnchecked(bit)
	}
	return nil
}

// WriteBuffer appends whole bytes, using a byte-aligned copy when the current
// length is already a byte multiple.
func (b *BitBuilder) WriteBuffer(data []byte) error {
	n := len(data) * 8
	if b.length+n > b.capacityBits {
		return fmt.Errorf("write buffer: %w", ErrBitOverflow)
	}
	if b.length%8 == 0 {
		copy(b.buf[b.length/8:], data)
		b.length += n
		return nil
	}
	for i := 0; i < n; i++ {
		b.writeBitUnchecked(getBit(data, i))
	}
	return nil
}

func bigOne(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// WriteBigUint writes value as an unsigned big-endian integer in exactly bits bits.
func (b *BitBuilder) WriteBigUint(value *big.Int, bits int) error {
	if value.Sign() < 0 {
		return fmt.Errorf("write biguint: %w", ErrRange)
	}
	if bits == 0 {
		if value.Sign() != 0 {
			return fmt.Errorf("write biguint: %w", ErrRange)
		}
		return nil
	}
	if value.Cmp(bigOne(bits)) >= 0 {
		return fmt.Errorf("write biguint: %w", ErrRange)
	}
	if b.length+bits > b.capacityBits {
		return fmt.Errorf("write biguint: %w", ErrBitOverflow)
	}
	byteLen := (bits + 7) / 8
	raw := value.Bytes()
	buf := make([]byte, byteLen)
	copy(buf[byteLen-len(raw):], raw)
	skip := byteLen*8 - bits
	for i := 0; i < bits; i++ {
		b.writeBitUnchecked(getBit(buf, skip+i))
	}
	return nil
}

// WriteUint writes value as an unsigned integer in exactly bits bits.
func (b *BitBuilder) WriteUint(value uint64, bits int) error {
	return b.WriteBigUint(new(big.Int).SetUint64(value), bits)
}

// WriteBigInt writes value as a two's-complement signed integer in exactly bits bits.
func (b *BitBuilder) WriteBigInt(value *big.Int, bits int) error {
	if bits == 0 {
		if value.Sign() != 0 {
			return fmt.Errorf("write bigint: %w", ErrRange)
		}
		return nil
	}
	if bits == 1 {
		if value.Sign() != 0 && value.Cmp(big.NewInt(-1)) != 0 {
			return fmt.Errorf("write bigint: %w", ErrRange)
		}
		return b.WriteBit(value.Sign() == -1)
	}
	half := bigOne(bits - 1)
	lo := new(big.Int).Neg(half)
	if value.Cmp(lo) < 0 || value.Cmp(half) >= 0 {
		return fmt.Errorf("write bigint: %w", ErrRange)
	}
	negative := value.Sign() < 0
	mag := new(big.Int).Set(value)
	if negative {
		mag = mag.Add(mag, half)
	}
	if err := b.WriteBit(negative); err != nil {
		return err
	}
	return b.WriteBigUint(mag, bits-1)
}

// WriteInt writes value as a two's-complement signed integer in exactly bits bits.
func (b *BitBuilder) WriteInt(value int64, bits int) error {
	return b.WriteBigInt(big.NewInt(value), bits)
}

// WriteVarUint writes a non-negative integer preceded by a headerBits-wide byte-length.
func (b *BitBuilder) WriteVarUint(value *big.Int, headerBits int) error {
	if value.Sign() < 0 {
		return fmt.Errorf("write varuint: %w", ErrRange)
	}
	if value.Sign() == 0 {
		return b.WriteUint(0, headerBits)
	}
	sizeBytes := (value.BitLen() + 7) / 8
	if err := b.WriteUint(uint64(sizeBytes), headerBits); err != nil {
		return err
	}
	return b.WriteBigUint(value, sizeBytes*8)
}

// WriteVarInt writes a signed integer preceded by a headerBits-wide byte-length.
func (b *BitBuilder) WriteVarInt(value *big.Int, headerBits int) error {
	if value.Sign() == 0 {
		return b.WriteUint(0, headerBits)
	}
	abs := new(big.Int).Abs(value)
	sizeBytes := (abs.BitLen() + 1 + 7) / 8
	if err := b.WriteUint(uint64(sizeBytes), headerBits); err != nil {
		return err
	}
	return b.WriteBigInt(value, sizeBytes*8)
}

// WriteCoins writes amount as a varuint with a 4-bit length header (up to 15 bytes).
func (b *BitBuilder) WriteCoins(amount *big.Int) error {
	return b.WriteVarUint(amount, 4)
}

// WriteAddress writes the internal-address form, or the 2-bit "none" tag when addr is nil.
func (b *BitBuilder) WriteAddress(addr *Address) error {
	if addr == nil {
		return b.WriteUint(0b00, 2)
	}
	if err := b.WriteUint(0b10, 2); err != nil {
		return err
	}
	if err := b.WriteBit(false); err != nil { // anycast absent
		return err
	}
	if err := b.WriteInt(int64(addr.Workchain), 8); err != nil {
		return err
	}
	return b.WriteBuffer(addr.Hash[:])
}

// WriteAddressExt writes none/internal/external depending on which argument is set;
// at most one of internal/external may be non-nil.
func (b *BitBuilder) WriteAddressExt(internal *Address, external *ExtAddress) error {
	switch {
	case internal == nil && external == nil:
		return b.WriteUint(0b00, 2)
	case internal != nil:
		return b.WriteAddress(internal)
	default:
		if err := b.WriteUint(0b01, 2); err != nil {
			return err
		}
		if err := b.WriteUint(uint64(external.Length), 9); err != nil {
			return err
		}
		return b.WriteBits(external.Value)
	}
}

// Build finalizes the builder into an immutable BitString over a fresh copy of its
// written bits.
func (b *BitBuilder) Build() BitString {
	out := make([]byte, (b.length+7)/8)
	for i := 0; i < b.length; i++ {
		if getBit(b.buf, i) {
			setBit(out, i, true)
		}
	}
	bs, _ := NewBitString(out, 0, b.length)
	return bs
}
