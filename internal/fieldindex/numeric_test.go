package fieldindex

import "testing"

func TestNumericIndexRangeInclusive(t *testing.T) {
	idx := NewNumericIndex(4)
	idx.Add(1, 3.5)
	idx.Add(2, 1.0)
	idx.Add(3, 2.0)

	it := idx.MatchRange(Range{Lo: 1, Hi: 2})
	got := collectIDs(it)
	if len(got) != 2 {
		t.Fatalf("expected 2 docs in [1,2], got %v", got)
	}
}

func TestNumericIndexRangeExclusive(t *testing.T) {
	idx := NewNumericIndex(4)
	idx.Add(1, 1.0)
	idx.Add(2, 2.0)
	idx.Add(3, 3.0)

	it := idx.MatchRange(Range{Lo: 1, Hi: 3, LoExclusive: true, HiExclusive: true})
	got := collectIDs(it)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected only doc 2 in (1,3), got %v", got)
	}
}

func TestNumericIndexSplitsBlocks(t *testing.T) {
	idx := NewNumericIndex(2)
	for i := 0; i < 50; i++ {
		idx.Add(DocID(i), float64(i))
	}

	it := idx.MatchRange(Range{Lo: 0, Hi: 49})
	got := collectIDs(it)
	if len(got) != 50 {
		t.Fatalf("expected all 50 docs in range, got %d", len(got))
	}
}

func TestNumericIndexValue(t *testing.T) {
	idx := NewNumericIndex(4)
	idx.Add(1, 7.5)
	v, ok := idx.Value(1)
	if !ok || v != 7.5 {
		t.Fatalf("expected value 7.5 for doc 1, got %v %v", v, ok)
	}
}
