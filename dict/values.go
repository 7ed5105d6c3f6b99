package dict

import (
	"math/big"

	"github.com/mr-tron/tongo-boc/boc"
)

// UintValue is a fixed-width unsigned-integer value coder.
type UintValue struct{ bits int }

func Uint64Value(bits int) UintValue { return UintValue{bits: bits} }

func (v UintValue) Store(b *boc.Builder, value uint64) error { return b.StoreUint(value, v.bits) }
func (v UintValue) Load(s *boc.Slice) (uint64, error)        { return s.LoadUint(v.bits) }

// IntValue is a fixed-width two's-complement signed-integer value coder.
type IntValue struct{ bits int }

func Int64Value(bits int) IntValue { return IntValue{bits: bits} }

func (v IntValue) Store(b *boc.Builder, value int64) error { return b.StoreInt(value, v.bits) }
func (v IntValue) Load(s *boc.Slice) (int64, error)        { return s.LoadInt(v.bits) }

// BigUintValue is an arbitrary-precision unsigned-integer value coder.
type BigUintValue struct{ bits int }

func BigUintVal(bits int) BigUintValue { return BigUintValue{bits: bits} }

func (v BigUintValue) Store(b *boc.Builder, value *big.Int) error {
	return b.StoreBigUint(value, v.bits)
}
func (v BigUintValue) Load(s *boc.Slice) (*big.Int, error) { return s.LoadBigUint(v.bits) }

// VarUintValue is a variable-width unsigned-integer value coder with a headerBits
// byte-length prefix, matching Builder.StoreVarUint.
type VarUintValue struct{ headerBits int }

func VarUint(headerBits int) VarUintValue { return VarUintValue{headerBits: headerBits} }

func (v VarUintValue) Store(b *boc.Builder, value *big.Int) error {
	return b.StoreVarUint(value, v.headerBits)
}
func (v VarUintValue) Load(s *boc.Slice) (*big.Int, error) { return s.LoadVarUint(v.headerBits) }

// CoinsValue is VarUint(4), the Coins wire shape.
type CoinsValue struct{}

func Coins() CoinsValue { return CoinsValue{} }

func (CoinsValue) Store(b *boc.Builder, value *big.Int) error { return b.StoreCoins(value) }
func (CoinsValue) Load(s *boc.Slice) (*big.Int, error)        { return s.LoadCoins() }

// BoolValue is a single-bit value coder.
type BoolValue struct{}

func Bool() BoolValue { return BoolValue{} }

func (BoolValue) Store(b *boc.Builder, value bool) error { return b.StoreBool(value) }
func (BoolValue) Load(s *boc.Slice) (bool, error)        { return s.LoadBool() }

// CellRefValue stores the value as a child ref rather than inline bits.
type CellRefValue struct{}

func CellRef() CellRefValue { return CellRefValue{} }

func (CellRefValue) Store(b *boc.Builder, value *boc.Cell) error { return b.StoreRef(value) }
func (CellRefValue) Load(s *boc.Slice) (*boc.Cell, error)        { return s.LoadRef() }

// BufferValue is a fixed n-byte value coder.
type BufferValue struct{ n int }

func BufferVal(n int) BufferValue { return BufferValue{n: n} }

func (v BufferValue) Store(b *boc.Builder, value []byte) error { return b.StoreBuffer(value) }
func (v BufferValue) Load(s *boc.Slice) ([]byte, error)        { return s.LoadBuffer(v.n) }

// BitStringValue is a fixed n-bit value coder with no further interpretation.
type BitStringValue struct{ n int }

func RawBitsValue(n int) BitStringValue { return BitStringValue{n: n} }

func (v BitStringValue) Store(b *boc.Builder, value boc.BitString) error {
	return b.StoreBits(value)
}
func (v BitStringValue) Load(s *boc.Slice) (boc.BitString, error) { return s.LoadBits(v.n) }

// AddressValue stores an internal address (or the "none" tag for nil) inline;
// external addresses are not supported.
type AddressValue struct{}

func AddrValue() AddressValue { return AddressValue{} }

func (AddressValue) Store(b *boc.Builder, value *boc.Address) error {
	return b.StoreAddress(value)
}
func (AddressValue) Load(s *boc.Slice) (*boc.Address, error) { return s.LoadAddress() }

// SliceValue captures whatever bits and refs remain in the node as an independent
// cell, the "slice-inline" value shape.
type SliceValue struct{}

func Inline() SliceValue { return SliceValue{} }

func (SliceValue) Store(b *boc.Builder, value *boc.Slice) error {
	return b.StoreSlice(value)
}

func (SliceValue) Load(s *boc.Slice) (*boc.Slice, error) {
	c, err := s.AsCell()
	if err != nil {
		return nil, err
	}
	if _, err := s.LoadBits(s.RemainingBits()); err != nil {
		return nil, err
	}
	for s.RemainingRefs() > 0 {
		if _, err := s.LoadRef(); err != nil {
			return nil, err
		}
	}
	return c.BeginParse(), nil
}

// DictValue nests a Dictionary as a value, reusing the same Maybe-ref HashmapE shape
// recursively.
type DictValue[K any, V any] struct {
	keys   KeyCoder[K]
	values ValueCoder[V]
}

func Nested[K any, V any](keys KeyCoder[K], values ValueCoder[V]) DictValue[K, V] {
	return DictValue[K, V]{keys: keys, values: values}
}

func (d DictValue[K, V]) Store(b *boc.Builder, value *Dictionary[K, V]) error {
	return value.Store(b)
}

func (d DictValue[K, V]) Load(s *boc.Slice) (*Dictionary[K, V], error) {
	out := New(d.keys, d.values)
	if err := out.Load(s); err != nil {
		return nil, err
	}
	return out, nil
}
