package fieldindex

import (
	"sort"

	"github.com/kailas-cloud/ftsearch/internal/engine"
)

// numEntry is a single (value, doc) pair within a NumericIndex block.
type numEntry struct {
	value float64
	doc   DocID
}

// NumericIndex is a sorted block-based structure keyed on double, with
// block_size-sized leaves. Range queries [lo, hi] return an
// ordered doc-id set; the index also serves as the SORTABLE value cache
// for NUMERIC fields when requested.
type NumericIndex struct {
	blockSize int
	blocks    [][]numEntry // each block sorted by value; blocks sorted by first value

	byDoc map[DocID]float64 // for Remove and SORTABLE projection
}

// NewNumericIndex creates an empty NumericIndex with the given leaf size.
func NewNumericIndex(blockSize int) *NumericIndex {
	if blockSize <= 0 {
		blockSize = 128
	}
	return &NumericIndex{
		blockSize: blockSize,
		blocks:    [][]numEntry{{}},
		byDoc:     make(map[DocID]float64),
	}
}

// Add inserts a document's numeric value.
func (n *NumericIndex) Add(doc DocID, value float64) {
	if old, ok := n.byDoc[doc]; ok {
		n.removeEntry(old, doc)
	}
	n.byDoc[doc] = value

	bi := n.blockFor(value)
	block := n.blocks[bi]
	i := sort.Search(len(block), func(i int) bool { return block[i].value >= value })
	block = append(block, numEntry{})
	copy(block[i+1:], block[i:])
	block[i] = numEntry{value: value, doc: doc}
	n.blocks[bi] = block

	if len(block) > 2*n.blockSize {
		n.splitBlock(bi)
	}
}

// Remove deletes a document's numeric value.
func (n *NumericIndex) Remove(doc DocID) {
	if value, ok := n.byDoc[doc]; ok {
		n.removeEntry(value, doc)
		delete(n.byDoc, doc)
	}
}

func (n *NumericIndex) removeEntry(value float64, doc DocID) {
	bi := n.blockFor(value)
	block := n.blocks[bi]
	for i, e := range block {
		if e.doc == doc && e.value == value {
			n.blocks[bi] = append(block[:i], block[i+1:]...)
			return
		}
	}
}

// blockFor returns the index of the block that should contain value.
func (n *NumericIndex) blockFor(value float64) int {
	lo, hi := 0, len(n.blocks)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if len(n.blocks[mid]) > 0 && n.blocks[mid][0].value <= value {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func (n *NumericIndex) splitBlock(bi int) {
	block := n.blocks[bi]
	mid := len(block) / 2
	left := append([]numEntry{}, block[:mid]...)
	right := append([]numEntry{}, block[mid:]...)

	n.blocks[bi] = left
	n.blocks = append(n.blocks, nil)
	copy(n.blocks[bi+2:], n.blocks[bi+1:])
	n.blocks[bi+1] = right
}

// Range is an inclusive/exclusive numeric range bound.
type Range struct {
	Lo, Hi         float64
	LoExclusive    bool
	HiExclusive    bool
}

// MatchRange returns the doc-id set whose value lies within r, ordered
// ascending by doc id.
func (n *NumericIndex) MatchRange(r Range) engine.PostingsIterator {
	var matched []uint32
	for _, block := range n.blocks {
		for _, e := range block {
			if belowLo(r, e.value) || aboveHi(r, e.value) {
				continue
			}
			matched = append(matched, e.doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	return engine.NewSlicePostingsIterator(matched, nil)
}

func belowLo(r Range, v float64) bool {
	if r.LoExclusive {
		return v <= r.Lo
	}
	return v < r.Lo
}

func aboveHi(r Range, v float64) bool {
	if r.HiExclusive {
		return v >= r.Hi
	}
	return v > r.Hi
}

// Value returns the stored numeric value for doc, used by SORTABLE
// projection and sort-key retrieval.
func (n *NumericIndex) Value(doc DocID) (float64, bool) {
	v, ok := n.byDoc[doc]
	return v, ok
}
