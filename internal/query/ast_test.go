package query

import "testing"

func TestFieldsWalksKnnFilter(t *testing.T) {
	n := &KnnWrap{
		Filter: &And{Children: []Node{
			&TagMatch{Field: "tags", Values: []string{"red"}},
			&NumericRange{Field: "price", Lo: 0, Hi: 10},
		}},
		Field: "vec",
	}
	got := Fields(n)
	want := map[string]bool{"tags": true, "price": true, "vec": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), got)
	}
	for _, f := range got {
		if !want[f] {
			t.Fatalf("unexpected field %q in %v", f, got)
		}
	}
}

func TestFieldsIgnoresBareTextTerm(t *testing.T) {
	n := &And{Children: []Node{&TextTerm{Term: "fox"}}}
	if got := Fields(n); len(got) != 0 {
		t.Fatalf("expected no fields for a bare term, got %v", got)
	}
}
