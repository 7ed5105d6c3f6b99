package boc

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	sha256 "github.com/minio/sha256-simd"
)

// CellType is the closed sum of cell variants a Cell's first data byte can select.
type CellType int

const (
	Ordinary CellType = iota
	PrunedBranch
	LibraryCell
	MerkleProof
	MerkleUpdate
)

const (
	maxCellBits = 1023
	maxCellRefs = 4
)

// Cell is an immutable, content-addressed node in the Bag-of-Cells DAG: up to 1023
// bits of payload plus up to 4 child refs, with a derived LevelMask and per-level
// hash/depth arrays computed once at construction.
type Cell struct {
	typ    CellType
	bits   BitString
	refs   []*Cell
	mask   LevelMask
	hashes [][32]byte
	depths []uint16
}

// EmptyCell is the canonical Ordinary cell with no bits and no refs.
func EmptyCell() *Cell {
	c, _ := NewOrdinaryCell(Empty, nil)
	return c
}

// NewOrdinaryCell builds and hashes an Ordinary cell.
func NewOrdinaryCell(bits BitString, refs []*Cell) (*Cell, error) {
	if bits.Length() > maxCellBits {
		return nil, fmt.Errorf("new ordinary cell: %w", ErrBitOverflow)
	}
	if len(refs) > maxCellRefs {
		return nil, fmt.Errorf("new ordinary cell: %w", ErrRefOverflow)
	}
	mask := LevelMask{}
	for _, r := range refs {
		mask = mask.Or(r.mask)
	}
	c := &Cell{typ: Ordinary, bits: bits, refs: refs, mask: mask}
	c.computeHashes()
	return c, nil
}

// Accepted pruned-branch bit lengths: the level-1 short form without a mask byte,
// plus the standard 8+8+level*(256+16) forms for levels 1..3.
const (
	prunedBranchLevel1Special = 280
	prunedBranchLevel1Full    = 288
	prunedBranchLevel2        = 560
	prunedBranchLevel3        = 832
)

// NewExoticCell builds and hashes an exotic cell; the subtype is read from the first
// 8 bits of bits.
func NewExoticCell(bits BitString, refs []*Cell) (*Cell, error) {
	if bits.Length() > maxCellBits {
		return nil, fmt.Errorf("new exotic cell: %w", ErrBitOverflow)
	}
	if len(refs) > maxCellRefs {
		return nil, fmt.Errorf("new exotic cell: %w", ErrRefOverflow)
	}
	if bits.Length() < 8 {
		return nil, fmt.Errorf("new exotic cell: %w", ErrInvalidExoticCell)
	}
	r := NewBitReader(bits)
	typeByte, _ := r.LoadUint(8)

	switch typeByte {
	case 1: // PrunedBranch
		if len(refs) != 0 {
			return nil, fmt.Errorf("pruned branch: %w", ErrInvalidExoticCell)
		}
		switch bits.Length() {
		case prunedBranchLevel1Special:
			return newPrunedBranch(bits, NewLevelMask(1), 1)
		case prunedBranchLevel1Full:
			maskByte, _ := r.LoadUint(8)
			return newPrunedBranch(bits, NewLevelMask(uint(maskByte)), 1)
		case prunedBranchLevel2:
			maskByte, _ := r.LoadUint(8)
			return newPrunedBranch(bits, NewLevelMask(uint(maskByte)), 2)
		case prunedBranchLevel3:
			maskByte, _ := r.LoadUint(8)
			return newPrunedBranch(bits, NewLevelMask(uint(maskByte)), 3)
		default:
			return nil, fmt.Errorf("pruned branch: bad bit length %d: %w", bits.Length(), ErrInvalidExoticCell)
		}
	case 2: // Library: accepted, see Open Questions in DESIGN.md
		if len(refs) != 0 {
			return nil, fmt.Errorf("library cell: %w", ErrInvalidExoticCell)
		}
		c := &Cell{typ: LibraryCell, bits: bits, refs: refs, mask: LevelMask{}}
		c.computeHashes()
		return c, nil
	case 3: // MerkleProof
		if len(refs) != 1 {
			return nil, fmt.Errorf("merkle proof: %w", ErrInvalidExoticCell)
		}
		if bits.Length() != 280 {
			return nil, fmt.Errorf("merkle proof: bad bit length %d: %w", bits.Length(), ErrInvalidExoticCell)
		}
		mask := NewLevelMask(refs[0].mask.Value() >> 1)
		c := &Cell{typ: MerkleProof, bits: bits, refs: refs, mask: mask}
		c.computeHashes()
		return c, nil
	case 4: // MerkleUpdate
		if len(refs) != 2 {
			return nil, fmt.Errorf("merkle update: %w", ErrInvalidExoticCell)
		}
		if bits.Length() != 552 {
			return nil, fmt.Errorf("merkle update: bad bit length %d: %w", bits.Length(), ErrInvalidExoticCell)
		}
		mask := NewLevelMask((refs[0].mask.Value() | refs[1].mask.Value()) >> 1)
		c := &Cell{typ: MerkleUpdate, bits: bits, refs: refs, mask: mask}
		c.computeHashes()
		return c, nil
	default:
		return nil, fmt.Errorf("exotic type %d: %w", typeByte, ErrInvalidExoticCell)
	}
}

// newPrunedBranch reads the `level` stored (hash,depth) pairs directly out of bits;
// those are the original subtree's hash/depth at levels 1..level, carried verbatim
// rather than computed, which is the entire point of pruning a branch.
func newPrunedBranch(bits BitString, mask LevelMask, level int) (*Cell, error) {
	c := &Cell{typ: PrunedBranch, bits: bits, refs: nil, mask: mask}
	hashCount := mask.HashCount()
	c.hashes = make([][32]byte, hashCount)
	c.depths = make([]uint16, hashCount)

	// level0: representation hash of the pruned-branch cell itself (no refs).
	c.hashes[0] = sha256.Sum256(c.repr(0))
	c.depths[0] = 0

	skip := 8
	if level > 1 || bits.Length() != prunedBranchLevel1Special {
		skip += 8 // explicit mask byte present
	}
	r := NewBitReader(bits)
	_ = r.Skip(skip)
	for i := 1; i <= level && i < hashCount; i++ {
		h, err := r.LoadBuffer(32)
		if err != nil {
			return nil, fmt.Errorf("pruned branch hash[%d]: %w", i, err)
		}
		d, err := r.LoadUint(16)
		if err != nil {
			return nil, fmt.Errorf("pruned branch depth[%d]: %w", i, err)
		}
		copy(c.hashes[i][:], h)
		c.depths[i] = uint16(d)
	}
	return c, nil
}

func (c *Cell) IsExotic() bool  { return c.typ != Ordinary }
func (c *Cell) Type() CellType  { return c.typ }
func (c *Cell) Bits() BitString { return c.bits }
func (c *Cell) BitSize() int    { return c.bits.Length() }
func (c *Cell) Refs() []*Cell   { return c.refs }
func (c *Cell) RefsSize() int   { return len(c.refs) }
func (c *Cell) Mask() LevelMask { return c.mask }

// refLevel maps this cell's hash-index k to the level a child ref should be queried
// at: Ordinary/PrunedBranch use the same level, Merkle types consume one level.
func (c *Cell) refLevel(k int) int {
	if c.typ == MerkleProof || c.typ == MerkleUpdate {
		return k + 1
	}
	return k
}

// repr builds the cell representation (descriptor || data || ref-depths || ref-hashes)
// used to compute hash[level].
func (c *Cell) repr(level int) []byte {
	d1 := byte(len(c.refs))
	if c.IsExotic() {
		d1 += 8
	}
	d1 += byte(c.mask.Value()) << 5

	d2 := cellDescriptor2(c.bits.Length())

	data := c.bits.topUppedArray()

	out := make([]byte, 0, 2+len(data)+len(c.refs)*(2+32))
	out = append(out, d1, d2)
	out = append(out, data...)

	for _, ref := range c.refs {
		depthBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(depthBuf, ref.DepthAt(c.refLevel(level)))
		out = append(out, depthBuf...)
	}
	for _, ref := range c.refs {
		out = append(out, ref.HashAt(c.refLevel(level))...)
	}
	return out
}

// cellDescriptor2 is the d2 descriptor byte shared by cell-representation hashing and
// BoC cell-body encoding: ceil(b/8) + floor(b/8), i.e. twice the data byte count,
// minus one when b is not a byte multiple. cell.go and boc.go share it rather than
// risk drifting apart.
func cellDescriptor2(bitLen int) byte {
	return byte((bitLen+7)/8 + bitLen/8)
}

func maxDepth(refs []*Cell, level int) uint16 {
	var m uint16
	for _, r := range refs {
		d := r.DepthAt(level)
		if d > m {
			m = d
		}
	}
	return m
}

func (c *Cell) computeHashes() {
	hashCount := c.mask.HashCount()
	c.hashes = make([][32]byte, hashCount)
	c.depths = make([]uint16, hashCount)
	for k := 0; k < hashCount; k++ {
		if len(c.refs) == 0 {
			c.depths[k] = 0
		} else {
			d := maxDepth(c.refs, c.refLevel(k)) + 1
			if d > 0xFFFF {
				d = 0xFFFF
			}
			c.depths[k] = d
		}
		c.hashes[k] = sha256.Sum256(c.repr(k))
	}
}

// HashAt returns the representative hash at the given level, clamped to the cell's
// actual hash count the way the public hash() does.
func (c *Cell) HashAt(level int) []byte {
	idx := level
	if idx >= len(c.hashes) {
		idx = len(c.hashes) - 1
	}
	if idx < 0 {
		idx = 0
	}
	h := c.hashes[idx]
	return h[:]
}

// DepthAt returns the depth at the given level, clamped like HashAt.
func (c *Cell) DepthAt(level int) uint16 {
	idx := level
	if idx >= len(c.depths) {
		idx = len(c.depths) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return c.depths[idx]
}

// Hash returns the level-3 representative hash (the canonical cell identity).
func (c *Cell) Hash() []byte {
	return c.HashAt(3)
}

func (c *Cell) HashString() string {
	return hex.EncodeToString(c.Hash())
}

// Depth returns the level-3 depth.
func (c *Cell) Depth() uint16 {
	return c.DepthAt(3)
}

// Equal is canonical Cell equality: level-3 hash equality.
func (c *Cell) Equal(other *Cell) bool {
	if c == nil || other == nil {
		return c == other
	}
	return ByteArrayEquals(c.Hash(), other.Hash())
}

func ByteArrayEquals(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BeginParse opens a read cursor over the cell's bits and refs.
func (c *Cell) BeginParse() *Slice {
	return NewSlice(c)
}

func (c *Cell) ToBoc() ([]byte, error) {
	return SerializeBoc(c, true, true, false, 0)
}

func (c *Cell) ToBocCustom(hasIdx, hasCrc32C, cacheBits bool, flags int) ([]byte, error) {
	return SerializeBoc(c, hasIdx, hasCrc32C, cacheBits, flags)
}

func (c *Cell) ToBocString() (string, error) {
	return c.ToBocStringCustom(true, true, false, 0)
}

func (c *Cell) ToBocStringCustom(hasIdx, hasCrc32C, cacheBits bool, flags int) (string, error) {
	data, err := c.ToBocCustom(hasIdx, hasCrc32C, cacheBits, flags)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func (c *Cell) ToBocBase64() (string, error) {
	return c.ToBocBase64Custom(true, true, false, 0)
}

func (c *Cell) ToBocBase64Custom(hasIdx, hasCrc32C, cacheBits bool, flags int) (string, error) {
	data, err := c.ToBocCustom(hasIdx, hasCrc32C, cacheBits, flags)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *Cell) typePrefix() string {
	switch c.typ {
	case PrunedBranch, MerkleProof:
		return "p"
	case MerkleUpdate:
		return "u"
	default:
		return "x"
	}
}

func (c *Cell) toStringImpl(indent string) string {
	s := indent + c.typePrefix() + "{" + c.bits.ToFiftHex() + "}\n"
	for _, ref := range c.refs {
		s += ref.toStringImpl(indent + " ")
	}
	return s
}

func (c *Cell) String() string {
	return c.toStringImpl("")
}
