package boc

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var (
	reachBocMagic  = [4]byte{0xb5, 0xee, 0x9c, 0x72}
	leanBocMagic   = [4]byte{0x68, 0xff, 0x65, 0xf3}
	leanBocMagicCR = [4]byte{0xac, 0xc3, 0xa7, 0x28}
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func readBE(b []byte) int {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return int(v)
}

func writeBE(buf *bytes.Buffer, v uint64, n int) {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	buf.Write(out)
}

func byteLenForBits(nbits int) int {
	n := 0
	for (1 << uint(n*8)) <= nbits {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// topologicalSort walks the DAG rooted at root, collapsing shared subgraphs by hash,
// then reverses the children-first post-order so parents precede children, the BoC
// serialization convention. Refs are visited last-to-first, so after the reversal
// siblings appear in their ref order. A cell reachable twice is only emitted once; a genuine
// cycle (impossible to build through Builder/Cell but checked defensively anyway)
// fails with "circular references are not allowed".
func topologicalSort(root *Cell) ([]*Cell, map[string]int, error) {
	order := make([]*Cell, 0)
	indexed := map[string]bool{}
	visiting := map[string]bool{}

	var visit func(c *Cell) error
	visit = func(c *Cell) error {
		h := c.HashString()
		if indexed[h] {
			return nil
		}
		if visiting[h] {
			return fmt.Errorf("circular references are not allowed")
		}
		visiting[h] = true
		for i := len(c.refs) - 1; i >= 0; i-- {
			if err := visit(c.refs[i]); err != nil {
				return err
			}
		}
		delete(visiting, h)
		indexed[h] = true
		order = append(order, c)
		return nil
	}
	if err := visit(root); err != nil {
		return nil, nil, err
	}

	reversed := make([]*Cell, len(order))
	for i, c := range order {
		reversed[len(order)-1-i] = c
	}
	indexOf := make(map[string]int, len(reversed))
	for i, c := range reversed {
		indexOf[c.HashString()] = i
	}
	return reversed, indexOf, nil
}

func cellBodySize(c *Cell, sizeBytes int) int {
	return 2 + (c.bits.Length()+7)/8 + len(c.refs)*sizeBytes
}

func appendCellBody(buf *bytes.Buffer, c *Cell, indexOf map[string]int, sizeBytes int) {
	d1 := byte(len(c.refs))
	if c.IsExotic() {
		d1 += 8
	}
	d1 += byte(c.mask.Value()) << 5
	d2 := cellDescriptor2(c.bits.Length())
	buf.WriteByte(d1)
	buf.WriteByte(d2)
	buf.Write(c.bits.topUppedArray())
	for _, ref := range c.refs {
		writeBE(buf, uint64(indexOf[ref.HashString()]), sizeBytes)
	}
}

// SerializeBoc serializes root (and everything it reaches) into a standard-magic
// (0xB5EE9C72) Bag-of-Cells with a single root, root index 0, and absent count 0.
func SerializeBoc(root *Cell, hasIdx, hasCrc32C, hasCacheBits bool, flags int) ([]byte, error) {
	cells, indexOf, err := topologicalSort(root)
	if err != nil {
		return nil, err
	}
	cellsNum := len(cells)

	sizeBytes := byteLenForBits(cellsNum)

	cellSizes := make([]int, cellsNum)
	totalCellSize := 0
	for i, c := range cells {
		sz := cellBodySize(c, sizeBytes)
		cellSizes[i] = sz
		totalCellSize += sz
	}
	offsetBytes := byteLenForBits(totalCellSize)

	var buf bytes.Buffer
	buf.Write(reachBocMagic[:])

	var flagsByte byte
	if hasIdx {
		flagsByte |= 0x80
	}
	if hasCrc32C {
		flagsByte |= 0x40
	}
	if hasCacheBits {
		flagsByte |= 0x20
	}
	flagsByte |= byte(flags&0x3) << 3
	flagsByte |= byte(sizeBytes & 0x7)
	buf.WriteByte(flagsByte)
	buf.WriteByte(byte(offsetBytes))

	writeBE(&buf, uint64(cellsNum), sizeBytes)
	writeBE(&buf, 1, sizeBytes) // rootsNum
	writeBE(&buf, 0, sizeBytes) // absent
	writeBE(&buf, uint64(totalCellSize), offsetBytes)
	writeBE(&buf, 0, sizeBytes) // root index 0

	if hasIdx {
		running := 0
		for _, sz := range cellSizes {
			running += sz
			writeBE(&buf, uint64(running), offsetBytes)
		}
	}

	for _, c := range cells {
		appendCellBody(&buf, c, indexOf, sizeBytes)
	}

	out := buf.Bytes()
	if hasCrc32C {
		crc := crc32.Checksum(out, crcTable)
		crcBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(crcBuf, crc)
		out = append(out, crcBuf...)
	}

	want := 6 + 4*sizeBytes + offsetBytes + totalCellSize
	if hasIdx {
		want += cellsNum * offsetBytes
	}
	if hasCrc32C {
		want += 4
	}
	if len(out) != want {
		return nil, fmt.Errorf("boc serialize: emitted %d bytes, expected %d", len(out), want)
	}
	return out, nil
}

type parsedBoc struct {
	sizeBytes, offsetBytes         int
	cellsNum, rootsNum, absentNum  int
	totalCellSize                  int
	rootList                       []int
	index                          []int
	cellsData                      []byte
}

func parseBocHeader(data []byte) (*parsedBoc, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("boc header too short: %w", ErrInvalidBocHeader)
	}
	magic := [4]byte{data[0], data[1], data[2], data[3]}
	rest := data[4:]

	var hasIdx, hasCrc32C, standard bool
	var sizeBytes int
	switch magic {
	case reachBocMagic:
		standard = true
		flagsByte := rest[0]
		hasIdx = flagsByte&0x80 != 0
		hasCrc32C = flagsByte&0x40 != 0
		sizeBytes = int(flagsByte & 0x7)
		rest = rest[1:]
	case leanBocMagic:
		hasIdx = true
		sizeBytes = int(rest[0])
		rest = rest[1:]
	case leanBocMagicCR:
		hasIdx = true
		hasCrc32C = true
		sizeBytes = int(rest[0])
		rest = rest[1:]
	default:
		return nil, fmt.Errorf("unknown boc magic %x: %w", magic, ErrInvalidBocHeader)
	}
	if sizeBytes == 0 {
		return nil, fmt.Errorf("boc header: sizeBytes is 0: %w", ErrInvalidBocHeader)
	}
	if len(rest) < 1 {
		return nil, fmt.Errorf("boc header truncated: %w", ErrInvalidBocHeader)
	}
	offsetBytes := int(rest[0])
	rest = rest[1:]
	if offsetBytes == 0 {
		return nil, fmt.Errorf("boc header: offsetBytes is 0: %w", ErrInvalidBocHeader)
	}

	need := 3*sizeBytes + offsetBytes
	if len(rest) < need {
		return nil, fmt.Errorf("boc header truncated: %w", ErrInvalidBocHeader)
	}
	cellsNum := readBE(rest[:sizeBytes])
	rest = rest[sizeBytes:]
	rootsNum := readBE(rest[:sizeBytes])
	rest = rest[sizeBytes:]
	absentNum := readBE(rest[:sizeBytes])
	rest = rest[sizeBytes:]
	totalCellSize := readBE(rest[:offsetBytes])
	rest = rest[offsetBytes:]

	var rootList []int
	if standard {
		if len(rest) < rootsNum*sizeBytes {
			return nil, fmt.Errorf("boc root list truncated: %w", ErrInvalidBocHeader)
		}
		for i := 0; i < rootsNum; i++ {
			rootList = append(rootList, readBE(rest[:sizeBytes]))
			rest = rest[sizeBytes:]
		}
	} else {
		rootList = []int{0}
	}

	var index []int
	if hasIdx {
		if len(rest) < cellsNum*offsetBytes {
			return nil, fmt.Errorf("boc index truncated: %w", ErrInvalidBocHeader)
		}
		for i := 0; i < cellsNum; i++ {
			index = append(index, readBE(rest[:offsetBytes]))
			rest = rest[offsetBytes:]
		}
	}

	if len(rest) < totalCellSize {
		return nil, fmt.Errorf("boc cell data truncated: %w", ErrInvalidBocHeader)
	}
	cellsData := rest[:totalCellSize]
	rest = rest[totalCellSize:]

	if hasCrc32C {
		if len(rest) < 4 {
			return nil, fmt.Errorf("boc crc truncated: %w", ErrInvalidBocHeader)
		}
		want := binary.LittleEndian.Uint32(rest[:4])
		got := crc32.Checksum(data[:len(data)-4], crcTable)
		if want != got {
			return nil, fmt.Errorf("boc crc mismatch: %w", ErrInvalidCrc)
		}
		rest = rest[4:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("boc has %d trailing bytes: %w", len(rest), ErrInvalidBocHeader)
	}

	return &parsedBoc{
		sizeBytes:     sizeBytes,
		offsetBytes:   offsetBytes,
		cellsNum:      cellsNum,
		rootsNum:      rootsNum,
		absentNum:     absentNum,
		totalCellSize: totalCellSize,
		rootList:      rootList,
		index:         index,
		cellsData:     cellsData,
	}, nil
}

// rawCell is one decoded-but-not-yet-linked cell body: its bits and the indices of
// its refs into the same cells array.
type rawCell struct {
	bits BitString
	refs []int
}

func deserializeCellData(data []byte, sizeBytes int) (rawCell, []byte, error) {
	if len(data) < 2 {
		return rawCell{}, nil, fmt.Errorf("cell body too short: %w", ErrInvalidBocHeader)
	}
	d1, d2 := data[0], data[1]
	data = data[2:]

	refsCount := int(d1 % 8)
	dataBytes := (int(d2) + 1) / 2
	padded := d2%2 == 1

	if len(data) < dataBytes {
		return rawCell{}, nil, fmt.Errorf("cell data truncated: %w", ErrInvalidBocHeader)
	}
	raw := data[:dataBytes]
	data = data[dataBytes:]

	bits, err := bitStringFromToppedBytes(raw, padded)
	if err != nil {
		return rawCell{}, nil, fmt.Errorf("cell data: %w", ErrInvalidBocHeader)
	}

	if len(data) < refsCount*sizeBytes {
		return rawCell{}, nil, fmt.Errorf("cell refs truncated: %w", ErrInvalidBocHeader)
	}
	refs := make([]int, refsCount)
	for i := 0; i < refsCount; i++ {
		refs[i] = readBE(data[:sizeBytes])
		data = data[sizeBytes:]
	}

	return rawCell{bits: bits, refs: refs}, data, nil
}

// DeserializeBoc parses a Bag-of-Cells and returns its root cells, in rootList order.
// All three magics (standard 0xB5EE9C72, legacy 0x68FF65F3 and 0xACC3A728) are
// accepted; legacy BoCs always carry an index and never a CRC (0x68FF65F3) or always
// carry one (0xACC3A728).
func DeserializeBoc(data []byte) ([]*Cell, error) {
	h, err := parseBocHeader(data)
	if err != nil {
		return nil, err
	}

	raws := make([]rawCell, h.cellsNum)
	rest := h.cellsData
	typeBytes := make([]byte, h.cellsNum)
	isExoticFlags := make([]bool, h.cellsNum)
	for i := 0; i < h.cellsNum; i++ {
		if len(rest) < 1 {
			return nil, fmt.Errorf("cell %d: %w", i, ErrInvalidBocHeader)
		}
		typeBytes[i] = rest[0]
		isExoticFlags[i] = rest[0]&8 != 0
		rc, next, err := deserializeCellData(rest, h.sizeBytes)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		raws[i] = rc
		rest = next
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("boc has %d unconsumed cell-data bytes: %w", len(rest), ErrInvalidBocHeader)
	}

	cells := make([]*Cell, h.cellsNum)
	for i := h.cellsNum - 1; i >= 0; i-- {
		rc := raws[i]
		refs := make([]*Cell, len(rc.refs))
		for j, r := range rc.refs {
			if r <= i || r >= h.cellsNum {
				return nil, fmt.Errorf("cell %d: ref %d out of topological order: %w", i, r, ErrInvalidBocHeader)
			}
			refs[j] = cells[r]
		}
		var c *Cell
		var err error
		if isExoticFlags[i] {
			c, err = NewExoticCell(rc.bits, refs)
		} else {
			c, err = NewOrdinaryCell(rc.bits, refs)
		}
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = c
	}

	roots := make([]*Cell, len(h.rootList))
	for i, idx := range h.rootList {
		if idx < 0 || idx >= h.cellsNum {
			return nil, fmt.Errorf("root %d out of range: %w", idx, ErrInvalidBocHeader)
		}
		roots[i] = cells[idx]
	}
	return roots, nil
}

// DeserializeBocBase64 base64-decodes s and deserializes the result.
func DeserializeBocBase64(s string) ([]*Cell, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("deserialize boc base64: %w", err)
	}
	return DeserializeBoc(data)
}
