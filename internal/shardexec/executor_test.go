package shardexec

import (
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
)

func testShard(t *testing.T) *shard.Shard {
	t.Helper()
	return shard.New(analysis.NewStandardAnalyzer(), nil, nil)
}

func basicHandle(t *testing.T) *shard.Handle {
	t.Helper()
	s := testShard(t)
	def, err := schema.New("idx", schema.DocHash, "doc:", nil, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldTag, Flags: schema.FlagSortable, Tag: schema.DefaultTagParams()},
		{Identifier: "price", Type: schema.FieldNumeric, Flags: schema.FlagSortable, Numeric: schema.DefaultNumericParams()},
	})
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	h, err := s.Create(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	s.Dispatch("doc:2", map[string]string{"name": "banana", "price": "1.0"}, nil)
	s.Dispatch("doc:3", map[string]string{"name": "apple"}, nil)
	return h
}

func parseOn(t *testing.T, h *shard.Handle, src string, params map[string]string) query.Node {
	t.Helper()
	n, err := query.Parse(src, h.Def, params)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func TestExecuteMatchAllCountsEveryDoc(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{AST: parseOn(t, h, "*", nil), Projection: Projection{Mode: ProjectNoContent}})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 3 {
		t.Fatalf("expected 3 hits, got %d", res.TotalHits)
	}
}

func TestExecuteNumericRange(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{AST: parseOn(t, h, "@price:[1 2]", nil)})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 1 || res.Docs[0].Key != "doc:2" {
		t.Fatalf("expected only doc:2, got %+v", res.Docs)
	}
	if got := res.Docs[0].Fields["name"]; got != "banana" {
		t.Fatalf("expected projected name 'banana', got %v", got)
	}
	if got := res.Docs[0].Fields["price"]; got != 1.0 {
		t.Fatalf("expected projected price 1.0, got %v", got)
	}
}

func TestExecuteTagMatchAndSortBy(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{
		AST:    parseOn(t, h, "@name:{apple}", nil),
		SortBy: &SortSpec{Field: "price"},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 2 {
		t.Fatalf("expected 2 hits, got %d", res.TotalHits)
	}
	byKey := map[string]SerializedSearchDoc{}
	for _, d := range res.Docs {
		byKey[d.Key] = d
	}
	if byKey["doc:1"].SortScore != 3.5 {
		t.Fatalf("expected doc:1 sort score 3.5, got %v", byKey["doc:1"].SortScore)
	}
	if byKey["doc:3"].SortScore != nil {
		t.Fatalf("expected doc:3 (no price) sort score nil, got %v", byKey["doc:3"].SortScore)
	}
}

func TestExecuteNegation(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{AST: parseOn(t, h, "-@name:{banana}", nil), Projection: Projection{Mode: ProjectNoContent}})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 2 {
		t.Fatalf("expected 2 hits, got %d", res.TotalHits)
	}
	for _, d := range res.Docs {
		if d.Key == "doc:2" {
			t.Fatalf("expected doc:2 excluded, got %+v", res.Docs)
		}
	}
}

func TestExecuteReturnProjectsOnlyListedFields(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{
		AST: parseOn(t, h, "@name:{apple}", nil),
		Projection: Projection{
			Mode:   ProjectReturn,
			Fields: []ProjectField{{Identifier: "price", As: "p"}},
		},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	for _, d := range res.Docs {
		if _, ok := d.Fields["name"]; ok {
			t.Fatalf("expected 'name' to be excluded from RETURN projection, got %+v", d.Fields)
		}
		if _, ok := d.Fields["p"]; !ok {
			t.Fatalf("expected renamed field 'p' present, got %+v", d.Fields)
		}
	}
}

func TestExecuteProfileRecordsEvents(t *testing.T) {
	h := basicHandle(t)
	res := New(h).Execute(Request{
		AST:     parseOn(t, h, "@name:{apple}", nil),
		Profile: true,
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Profile) == 0 {
		t.Fatal("expected at least one profile event")
	}
}

func vectorHandle(t *testing.T) *shard.Handle {
	t.Helper()
	s := testShard(t)
	def, err := schema.New("vidx", schema.DocHash, "doc:", nil, []schema.FieldSpec{
		{Identifier: "v", Type: schema.FieldVector, Vector: schema.VectorParams{
			Algo: schema.VectorFlat, Dim: 2, Metric: schema.MetricL2,
		}},
	})
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	h, err := s.Create(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Dispatch("doc:origin", map[string]string{"v": "0,0"}, nil)
	s.Dispatch("doc:right", map[string]string{"v": "1,0"}, nil)
	s.Dispatch("doc:up", map[string]string{"v": "0,1"}, nil)
	return h
}

func TestExecuteKNNOrdersByDistance(t *testing.T) {
	h := vectorHandle(t)
	params := map[string]string{"q": "0.1,0"}
	res := New(h).Execute(Request{
		AST:    parseOn(t, h, "*=>[KNN 2 @v $q AS s]", params),
		Params: params,
		Projection: Projection{
			Mode:   ProjectReturn,
			Fields: []ProjectField{{Identifier: "s"}},
		},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(res.Docs))
	}
	if res.Docs[0].Key != "doc:origin" {
		t.Fatalf("expected doc:origin closest, got %s", res.Docs[0].Key)
	}
	if res.Docs[1].Key != "doc:right" {
		t.Fatalf("expected doc:right second, got %s", res.Docs[1].Key)
	}
	if _, ok := res.Docs[0].Fields["s"]; !ok {
		t.Fatalf("expected score alias 's' injected into fields, got %+v", res.Docs[0].Fields)
	}
}

func TestExecuteKNNMissingParamErrors(t *testing.T) {
	h := vectorHandle(t)
	res := New(h).Execute(Request{AST: parseOn(t, h, "*=>[KNN 2 @v $q AS s]", map[string]string{"q": "0,0"})})
	if res.Err == nil {
		t.Fatal("expected error when $q is absent from Request.Params")
	}
}
