package dict

import (
	"fmt"
	"math/big"

	"github.com/mr-tron/tongo-boc/boc"
)

// UintKey is a fixed-width unsigned-integer key coder.
type UintKey struct{ bits int }

func Uint(bits int) UintKey { return UintKey{bits: bits} }

func (k UintKey) Bits() int { return k.bits }

func (k UintKey) Encode(v uint64) (boc.BitString, error) {
	bb := boc.NewBitBuilder(k.bits)
	if err := bb.WriteUint(v, k.bits); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (k UintKey) Decode(bits boc.BitString) (uint64, error) {
	return boc.NewBitReader(bits).LoadUint(k.bits)
}

// IntKey is a fixed-width two's-complement signed-integer key coder.
type IntKey struct{ bits int }

func Int(bits int) IntKey { return IntKey{bits: bits} }

func (k IntKey) Bits() int { return k.bits }

func (k IntKey) Encode(v int64) (boc.BitString, error) {
	bb := boc.NewBitBuilder(k.bits)
	if err := bb.WriteInt(v, k.bits); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (k IntKey) Decode(bits boc.BitString) (int64, error) {
	return boc.NewBitReader(bits).LoadInt(k.bits)
}

// BigUintKey is an arbitrary-precision unsigned-integer key coder over a fixed width.
type BigUintKey struct{ bits int }

func BigUint(bits int) BigUintKey { return BigUintKey{bits: bits} }

func (k BigUintKey) Bits() int { return k.bits }

func (k BigUintKey) Encode(v *big.Int) (boc.BitString, error) {
	bb := boc.NewBitBuilder(k.bits)
	if err := bb.WriteBigUint(v, k.bits); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (k BigUintKey) Decode(bits boc.BitString) (*big.Int, error) {
	return boc.NewBitReader(bits).LoadBigUint(k.bits)
}

// BigIntKey is an arbitrary-precision signed-integer key coder over a fixed width.
type BigIntKey struct{ bits int }

func BigInt(bits int) BigIntKey { return BigIntKey{bits: bits} }

func (k BigIntKey) Bits() int { return k.bits }

func (k BigIntKey) Encode(v *big.Int) (boc.BitString, error) {
	bb := boc.NewBitBuilder(k.bits)
	if err := bb.WriteBigInt(v, k.bits); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (k BigIntKey) Decode(bits boc.BitString) (*big.Int, error) {
	return boc.NewBitReader(bits).LoadBigInt(k.bits)
}

// AddressKey stores only internal addresses: 8-bit signed workchain + 256-bit hash.
type AddressKey struct{}

func Addr() AddressKey { return AddressKey{} }

func (AddressKey) Bits() int { return 264 }

func (AddressKey) Encode(addr *boc.Address) (boc.BitString, error) {
	if addr == nil {
		return boc.BitString{}, fmt.Errorf("dict: address key cannot be nil")
	}
	bb := boc.NewBitBuilder(264)
	if err := bb.WriteInt(int64(addr.Workchain), 8); err != nil {
		return boc.BitString{}, err
	}
	if err := bb.WriteBuffer(addr.Hash[:]); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (AddressKey) Decode(bits boc.BitString) (*boc.Address, error) {
	r := boc.NewBitReader(bits)
	wc, err := r.LoadInt(8)
	if err != nil {
		return nil, err
	}
	hash, err := r.LoadBuffer(32)
	if err != nil {
		return nil, err
	}
	addr := &boc.Address{Workchain: int8(wc)}
	copy(addr.Hash[:], hash)
	return addr, nil
}

// BufferKey is a raw n-byte key.
type BufferKey struct{ n int }

func Buffer(n int) BufferKey { return BufferKey{n: n} }

func (k BufferKey) Bits() int { return 8 * k.n }

func (k BufferKey) Encode(v []byte) (boc.BitString, error) {
	if len(v) != k.n {
		return boc.BitString{}, fmt.Errorf("dict: buffer key has %d bytes, want %d", len(v), k.n)
	}
	bb := boc.NewBitBuilder(8 * k.n)
	if err := bb.WriteBuffer(v); err != nil {
		return boc.BitString{}, err
	}
	return bb.Build(), nil
}

func (k BufferKey) Decode(bits boc.BitString) ([]byte, error) {
	return boc.NewBitReader(bits).LoadBuffer(k.n)
}

// BitStringKey is an arbitrary n-bit key with no further interpretation.
type BitStringKey struct{ n int }

func RawBits(n int) BitStringKey { return BitStringKey{n: n} }

func (k BitStringKey) Bits() int { return k.n }

func (k BitStringKey) Encode(v boc.BitString) (boc.BitString, error) {
	if v.Length() != k.n {
		return boc.BitString{}, fmt.Errorf("dict: bit string key has %d bits, want %d", v.Length(), k.n)
	}
	return v, nil
}

func (k BitStringKey) Decode(bits boc.BitString) (boc.BitString, error) {
	return bits, nil
}
