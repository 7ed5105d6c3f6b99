// Package dict implements the HashmapE patricia-trie dictionary: a sparse binary
// trie over fixed-width keys, serialized into Cells via a caller-supplied key coder
// and value coder. It depends only on boc's public Builder/Slice/Cell surface so
// that boc itself stays dictionary-agnostic.
package dict

import (
	"fmt"

	"github.com/mr-tron/tongo-boc/boc"
)

// KeyCoder bijects a typed key to and from a fixed-width BitString.
type KeyCoder[K any] interface {
	Bits() int
	Encode(k K) (boc.BitString, error)
	Decode(bits boc.BitString) (K, error)
}

// ValueCoder serializes and parses a typed value against a node's leaf body.
type ValueCoder[V any] interface {
	Store(b *boc.Builder, v V) error
	Load(s *boc.Slice) (V, error)
}

type entry[K any, V any] struct {
	key   K
	bits  boc.BitString
	value V
}

// Dictionary is an in-memory map<K,V> with a canonical Hashmap/HashmapE wire shape.
type Dictionary[K any, V any] struct {
	keyBits int
	keys    KeyCoder[K]
	values  ValueCoder[V]
	entries []entry[K, V]
}

// New builds an empty dictionary over the given key and value coders.
func New[K any, V any](keys KeyCoder[K], values ValueCoder[V]) *Dictionary[K, V] {
	return &Dictionary[K, V]{keyBits: keys.Bits(), keys: keys, values: values}
}

func (d *Dictionary[K, V]) Len() int { return len(d.entries) }

func (d *Dictionary[K, V]) Keys() []K {
	out := make([]K, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.key
	}
	return out
}

func (d *Dictionary[K, V]) Values() []V {
	out := make([]V, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.value
	}
	return out
}

// Iterate calls fn for every entry in insertion order, stopping at the first error.
func (d *Dictionary[K, V]) Iterate(fn func(k K, v V) error) error {
	for _, e := range d.entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dictionary[K, V]) encodeKey(k K) (boc.BitString, error) {
	bits, err := d.keys.Encode(k)
	if err != nil {
		return boc.BitString{}, err
	}
	if bits.Length() != d.keyBits {
		return boc.BitString{}, fmt.Errorf("dict: key encodes to %d bits, want %d: %w", bits.Length(), d.keyBits, boc.ErrInvalidDictLabel)
	}
	return bits, nil
}

// Set inserts or replaces the value for k.
func (d *Dictionary[K, V]) Set(k K, v V) error {
	bits, err := d.encodeKey(k)
	if err != nil {
		return err
	}
	for i := range d.entries {
		if d.entries[i].bits.Equal(bits) {
			d.entries[i].key = k
			d.entries[i].value = v
			return nil
		}
	}
	d.entries = append(d.entries, entry[K, V]{key: k, bits: bits, value: v})
	return nil
}

// Get looks up k, reporting whether it was present.
func (d *Dictionary[K, V]) Get(k K) (V, bool, error) {
	var zero V
	bits, err := d.encodeKey(k)
	if err != nil {
		return zero, false, err
	}
	for _, e := range d.entries {
		if e.bits.Equal(bits) {
			return e.value, true, nil
		}
	}
	return zero, false, nil
}

// Has reports whether k is present; coder errors are treated as absence.
func (d *Dictionary[K, V]) Has(k K) bool {
	_, ok, err := d.Get(k)
	return err == nil && ok
}

// Delete removes k if present. Deleting an absent key is a no-op.
func (d *Dictionary[K, V]) Delete(k K) error {
	bits, err := d.encodeKey(k)
	if err != nil {
		return err
	}
	for i := range d.entries {
		if d.entries[i].bits.Equal(bits) {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// encNode is one (remaining-suffix, value) pair during trie construction; suffix
// shrinks on each recursive call as labels and fork bits are consumed.
type encNode[V any] struct {
	suffix boc.BitString
	value  V
}

func commonPrefixLen(a, b boc.BitString) int {
	n := a.Length()
	if b.Length() < n {
		n = b.Length()
	}
	i := 0
	for i < n {
		av, _ := a.At(i)
		bv, _ := b.At(i)
		if av != bv {
			break
		}
		i++
	}
	return i
}

func commonPrefix[V any](nodes []encNode[V]) boc.BitString {
	prefixLen := nodes[0].suffix.Length()
	for _, nd := range nodes[1:] {
		if l := commonPrefixLen(nodes[0].suffix, nd.suffix); l < prefixLen {
			prefixLen = l
		}
	}
	p, _ := nodes[0].suffix.Substring(0, prefixLen)
	return p
}

func (d *Dictionary[K, V]) buildTrie(nodes []encNode[V], m int) (*boc.Builder, error) {
	b := boc.NewBuilder()
	label := commonPrefix(nodes)
	if err := encodeLabel(b, label, m); err != nil {
		return nil, err
	}
	remaining := m - label.Length()
	if remaining == 0 {
		if len(nodes) != 1 {
			return nil, fmt.Errorf("dict: %d keys collide at a leaf: %w", len(nodes), boc.ErrInvalidDictLabel)
		}
		if err := d.values.Store(b, nodes[0].value); err != nil {
			return nil, err
		}
		return b, nil
	}

	var left, right []encNode[V]
	for _, nd := range nodes {
		bit, err := nd.suffix.At(label.Length())
		if err != nil {
			return nil, err
		}
		rest, err := nd.suffix.Substring(label.Length()+1, remaining-1)
		if err != nil {
			return nil, err
		}
		nn := encNode[V]{suffix: rest, value: nd.value}
		if bit {
			right = append(right, nn)
		} else {
			left = append(left, nn)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return nil, fmt.Errorf("dict: label wasn't maximal: %w", boc.ErrInvalidDictLabel)
	}

	leftBuilder, err := d.buildTrie(left, remaining-1)
	if err != nil {
		return nil, err
	}
	leftCell, err := leftBuilder.EndCell()
	if err != nil {
		return nil, err
	}
	rightBuilder, err := d.buildTrie(right, remaining-1)
	if err != nil {
		return nil, err
	}
	rightCell, err := rightBuilder.EndCell()
	if err != nil {
		return nil, err
	}
	if err := b.StoreRef(leftCell); err != nil {
		return nil, err
	}
	if err := b.StoreRef(rightCell); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Dictionary[K, V]) buildRoot() (*boc.Builder, error) {
	if len(d.entries) == 0 {
		return nil, fmt.Errorf("dict: empty dictionary has no root node: %w", boc.ErrInvalidDictLabel)
	}
	nodes := make([]encNode[V], len(d.entries))
	for i, e := range d.entries {
		nodes[i] = encNode[V]{suffix: e.bits, value: e.value}
	}
	return d.buildTrie(nodes, d.keyBits)
}

// Store is the HashmapE encoding: a presence bit, then (if non-empty) a single ref
// to the root node.
func (d *Dictionary[K, V]) Store(b *boc.Builder) error {
	if len(d.entries) == 0 {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	root, err := d.buildRoot()
	if err != nil {
		return err
	}
	cell, err := root.EndCell()
	if err != nil {
		return err
	}
	return b.StoreRef(cell)
}

// StoreDirect inlines the root node's bits and refs directly into b, with no
// presence bit and no ref indirection. An empty dictionary has no direct encoding.
func (d *Dictionary[K, V]) StoreDirect(b *boc.Builder) error {
	root, err := d.buildRoot()
	if err != nil {
		return err
	}
	return b.StoreBuilder(root)
}

func appendBit(prefix boc.BitString, bit bool) boc.BitString {
	bb := boc.NewBitBuilder(prefix.Length() + 1)
	_ = bb.WriteBits(prefix)
	_ = bb.WriteBit(bit)
	return bb.Build()
}

func concatBits(a, b boc.BitString) boc.BitString {
	bb := boc.NewBitBuilder(a.Length() + b.Length())
	_ = bb.WriteBits(a)
	_ = bb.WriteBits(b)
	return bb.Build()
}

func (d *Dictionary[K, V]) decodeTrie(s *boc.Slice, m int, prefix boc.BitString) error {
	label, err := decodeLabel(s, m)
	if err != nil {
		return err
	}
	if label.Length() > m {
		return fmt.Errorf("dict: label of %d bits exceeds %d remaining key bits: %w", label.Length(), m, boc.ErrInvalidDictLabel)
	}
	full := concatBits(prefix, label)
	remaining := m - label.Length()
	if remaining == 0 {
		v, err := d.values.Load(s)
		if err != nil {
			return fmt.Errorf("dict value at key %s: %w", full.ToFiftHex(), boc.ErrDictValueParse)
		}
		k, err := d.keys.Decode(full)
		if err != nil {
			return fmt.Errorf("dict key %s: %w", full.ToFiftHex(), boc.ErrDictValueParse)
		}
		d.entries = append(d.entries, entry[K, V]{key: k, bits: full, value: v})
		return nil
	}

	leftRef, err := s.LoadRef()
	if err != nil {
		return err
	}
	rightRef, err := s.LoadRef()
	if err != nil {
		return err
	}
	if err := d.decodeTrie(leftRef.BeginParse(), remaining-1, appendBit(full, false)); err != nil {
		return err
	}
	return d.decodeTrie(rightRef.BeginParse(), remaining-1, appendBit(full, true))
}

// Load is the dual of Store: a presence bit, then (if set) a ref to the root.
func (d *Dictionary[K, V]) Load(s *boc.Slice) error {
	present, err := s.LoadBit()
	if err != nil {
		return err
	}
	d.entries = nil
	if !present {
		return nil
	}
	root, err := s.LoadRef()
	if err != nil {
		return err
	}
	return d.decodeTrie(root.BeginParse(), d.keyBits, boc.Empty)
}

// LoadDirect is the dual of StoreDirect: the root node is parsed from s itself.
func (d *Dictionary[K, V]) LoadDirect(s *boc.Slice) error {
	d.entries = nil
	return d.decodeTrie(s, d.keyBits, boc.Empty)
}
