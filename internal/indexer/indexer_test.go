package indexer

import (
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/fieldindex"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

func newTestIndexer(t *testing.T, fields []schema.FieldSpec, kind schema.DocKind) (*Indexer, *fieldindex.Set) {
	t.Helper()
	def, err := schema.New("idx", kind, "doc:", nil, fields)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	set := fieldindex.NewSet(def, analysis.NewStandardAnalyzer())
	return New(def, set, nil, nil), set
}

func TestAddHashIndexesEachFieldType(t *testing.T) {
	ix, set := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldText},
		{Identifier: "tags", Type: schema.FieldTag, Tag: schema.DefaultTagParams()},
		{Identifier: "price", Type: schema.FieldNumeric, Numeric: schema.DefaultNumericParams()},
	}, schema.DocHash)

	if err := ix.AddHash("doc:1", map[string]string{
		"name":  "quick brown fox",
		"tags":  "red,blue",
		"price": "9.99",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectIDs(set.Text("name").MatchTerm("fox"))
	if len(got) != 1 {
		t.Fatalf("expected doc indexed under 'name', got %v", got)
	}
	got = collectIDs(set.Tag("tags").MatchExact("red"))
	if len(got) != 1 {
		t.Fatalf("expected doc indexed under 'tags', got %v", got)
	}
	if v, ok := set.Numeric("price").Value(got[0]); !ok || v != 9.99 {
		t.Fatalf("expected price 9.99, got %v %v", v, ok)
	}
}

func TestAddHashDropsMalformedNumericSilently(t *testing.T) {
	ix, set := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldText},
		{Identifier: "price", Type: schema.FieldNumeric, Numeric: schema.DefaultNumericParams()},
	}, schema.DocHash)

	if err := ix.AddHash("doc:1", map[string]string{
		"name":  "widget",
		"price": "not-a-number",
	}); err != nil {
		t.Fatalf("expected no ingest-level error for a malformed field, got %v", err)
	}

	got := collectIDs(set.Text("name").MatchTerm("widget"))
	if len(got) != 1 {
		t.Fatalf("expected the 'name' field to still be indexed, got %v", got)
	}
	if _, ok := set.Numeric("price").Value(got[0]); ok {
		t.Fatal("expected malformed numeric value to be dropped")
	}
}

func TestDeleteRemovesDocFromEveryIndex(t *testing.T) {
	ix, set := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldText},
	}, schema.DocHash)

	_ = ix.AddHash("doc:1", map[string]string{"name": "fox"})
	ix.Delete("doc:1")

	got := collectIDs(set.Text("name").MatchTerm("fox"))
	if len(got) != 0 {
		t.Fatalf("expected no matches after delete, got %v", got)
	}
}

func TestAddJSONResolvesPaths(t *testing.T) {
	ix, set := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "$.user.name", Alias: "name", Type: schema.FieldText},
		{Identifier: "$.tags[0]", Alias: "tag0", Type: schema.FieldTag, Tag: schema.DefaultTagParams()},
	}, schema.DocJSON)

	doc := []byte(`{"user":{"name":"brown fox"},"tags":["red","blue"]}`)
	if err := ix.AddJSON("doc:1", doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectIDs(set.Text("name").MatchTerm("fox"))
	if len(got) != 1 {
		t.Fatalf("expected JSON path $.user.name indexed, got %v", got)
	}
	got = collectIDs(set.Tag("tag0").MatchExact("red"))
	if len(got) != 1 {
		t.Fatalf("expected JSON path $.tags[0] indexed, got %v", got)
	}
}

func TestAddJSONMissingPathSkipsField(t *testing.T) {
	ix, set := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "$.missing", Alias: "missing", Type: schema.FieldText},
	}, schema.DocJSON)

	if err := ix.AddJSON("doc:1", []byte(`{"other":"value"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collectIDs(set.Text("missing").MatchTerm("value")); len(got) != 0 {
		t.Fatalf("expected no terms indexed, got %v", got)
	}
}

func TestKeyReuseKeepsSameDocID(t *testing.T) {
	ix, _ := newTestIndexer(t, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldText},
	}, schema.DocHash)

	_ = ix.AddHash("doc:1", map[string]string{"name": "first"})
	firstDoc, _ := keyDocID(ix, "doc:1")
	_ = ix.AddHash("doc:1", map[string]string{"name": "second"})
	secondDoc, _ := keyDocID(ix, "doc:1")

	if firstDoc != secondDoc {
		t.Fatalf("expected stable doc id across re-index, got %v and %v", firstDoc, secondDoc)
	}
}

func keyDocID(ix *Indexer, key string) (DocID, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	d, ok := ix.keyToDoc[key]
	return d, ok
}

func collectIDs(it interface {
	Next() bool
	DocID() fieldindex.DocID
}) []fieldindex.DocID {
	var out []fieldindex.DocID
	for it.Next() {
		out = append(out, it.DocID())
	}
	return out
}
