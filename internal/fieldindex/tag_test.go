package fieldindex

import "testing"

func collectIDs(it interface{ Next() bool; DocID() DocID }) []DocID {
	var out []DocID
	for it.Next() {
		out = append(out, it.DocID())
	}
	return out
}

func TestTagIndexSplitAndMatch(t *testing.T) {
	idx := NewTagIndex(',', false, false)
	idx.Add(1, "red,Green")
	idx.Add(2, "blue")
	idx.Add(3, "green")

	got := collectIDs(idx.MatchExact("green"))
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected docs [1 3] for tag green, got %v", got)
	}
}

func TestTagIndexCaseSensitive(t *testing.T) {
	idx := NewTagIndex(',', true, false)
	idx.Add(1, "Red")
	idx.Add(2, "red")

	got := collectIDs(idx.MatchExact("red"))
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected only doc 2 to match exact case 'red', got %v", got)
	}
}

func TestTagIndexSuffixTrie(t *testing.T) {
	idx := NewTagIndex(',', false, true)
	idx.Add(1, "apple-pie")
	idx.Add(2, "key-lime-pie")
	idx.Add(3, "cake")

	got := collectIDs(idx.MatchSuffix("pie"))
	if len(got) != 2 {
		t.Fatalf("expected 2 docs ending in 'pie', got %v", got)
	}
}

func TestTagIndexRemove(t *testing.T) {
	idx := NewTagIndex(',', false, false)
	idx.Add(1, "a,b")
	idx.Remove(1)

	got := collectIDs(idx.MatchExact("a"))
	if len(got) != 0 {
		t.Fatalf("expected no matches after remove, got %v", got)
	}
}
