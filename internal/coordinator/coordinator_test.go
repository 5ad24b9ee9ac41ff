package coordinator

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

func newTestCoordinator(shards map[string]*shard.Shard) *Coordinator {
	return New(DefaultConfig(), shards, nil)
}

func tagPriceDef(t *testing.T) *schema.Definition {
	t.Helper()
	def, err := schema.New("idx", schema.DocHash, "doc:", nil, []schema.FieldSpec{
		{Identifier: "name", Type: schema.FieldTag, Flags: schema.FlagSortable, Tag: schema.DefaultTagParams()},
		{Identifier: "price", Type: schema.FieldNumeric, Flags: schema.FlagSortable, Numeric: schema.DefaultNumericParams()},
	})
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	return def
}

func parseOn(t *testing.T, def *schema.Definition, src string, params map[string]string) query.Node {
	t.Helper()
	n, err := query.Parse(src, def, params)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func TestSearchNoShards(t *testing.T) {
	c := newTestCoordinator(nil)
	res := c.Search(context.Background(), SearchRequest{Index: "idx"})
	if res.Err != ErrNoShards {
		t.Fatalf("expected ErrNoShards, got: %v", res.Err)
	}
}

func TestSearchUnknownIndexOnAnyShardFails(t *testing.T) {
	def := tagPriceDef(t)

	s0 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	if _, err := s0.Create(def); err != nil {
		t.Fatal(err)
	}
	s1 := shard.New(analysis.NewStandardAnalyzer(), nil, nil) // index never created here

	c := newTestCoordinator(map[string]*shard.Shard{"s0": s0, "s1": s1})
	res := c.Search(context.Background(), SearchRequest{Index: "idx", AST: &query.MatchAll{}})
	if res.Err == nil {
		t.Fatal("expected an error when one shard is missing the index")
	}
}

func twoShardFixture(t *testing.T) (*shard.Shard, *shard.Shard, *schema.Definition) {
	t.Helper()
	def := tagPriceDef(t)

	s0 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	h0, err := s0.Create(def)
	if err != nil {
		t.Fatal(err)
	}
	s0.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	s0.Dispatch("doc:2", map[string]string{"name": "apple", "price": "1.0"}, nil)

	s1 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	h1, err := s1.Create(def)
	if err != nil {
		t.Fatal(err)
	}
	s1.Dispatch("doc:3", map[string]string{"name": "apple", "price": "2.0"}, nil)

	_, _ = h0, h1
	return s0, s1, def
}

func TestSearchSumsTotalHitsAcrossShards(t *testing.T) {
	s0, s1, def := twoShardFixture(t)
	c := newTestCoordinator(map[string]*shard.Shard{"s0": s0, "s1": s1})

	res := c.Search(context.Background(), SearchRequest{
		Index:      "idx",
		AST:        parseOn(t, def, "@name:{apple}", nil),
		Projection: shardexec.Projection{Mode: shardexec.ProjectNoContent},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 3 {
		t.Fatalf("expected 3 total hits, got %d", res.TotalHits)
	}
	if len(res.Docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(res.Docs))
	}
}

func TestSearchSortByMergesAcrossShardsAscendingWithNullsLast(t *testing.T) {
	s0, s1, def := twoShardFixture(t)
	// doc:4 on s1 has no price.
	s1.Dispatch("doc:4", map[string]string{"name": "apple"}, nil)

	c := newTestCoordinator(map[string]*shard.Shard{"s0": s0, "s1": s1})

	res := c.Search(context.Background(), SearchRequest{
		Index:  "idx",
		AST:    parseOn(t, def, "@name:{apple}", nil),
		SortBy: &shardexec.SortSpec{Field: "price"},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Docs) != 4 {
		t.Fatalf("expected 4 docs, got %d", len(res.Docs))
	}
	order := make([]string, len(res.Docs))
	for i, d := range res.Docs {
		order[i] = d.Key
	}
	want := []string{"doc:2", "doc:3", "doc:1", "doc:4"} // 1.0, 2.0, 3.5, nil
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected sort order %v, got %v", want, order)
		}
	}
}

func TestSearchLimitAppliesAfterMerge(t *testing.T) {
	s0, s1, def := twoShardFixture(t)
	c := newTestCoordinator(map[string]*shard.Shard{"s0": s0, "s1": s1})

	res := c.Search(context.Background(), SearchRequest{
		Index:  "idx",
		AST:    parseOn(t, def, "@name:{apple}", nil),
		SortBy: &shardexec.SortSpec{Field: "price"},
		Limit:  &LimitSpec{Offset: 1, Total: 1},
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.TotalHits != 3 {
		t.Fatalf("expected total_hits 3 regardless of LIMIT, got %d", res.TotalHits)
	}
	if len(res.Docs) != 1 || res.Docs[0].Key != "doc:3" {
		t.Fatalf("expected only doc:3 after offset 1 limit 1, got %+v", res.Docs)
	}
}

func vectorFixture(t *testing.T) (map[string]*shard.Shard, *schema.Definition) {
	t.Helper()
	def, err := schema.New("vidx", schema.DocHash, "doc:", nil, []schema.FieldSpec{
		{Identifier: "v", Type: schema.FieldVector, Vector: schema.VectorParams{
			Algo: schema.VectorFlat, Dim: 2, Metric: schema.MetricL2,
		}},
	})
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}

	s0 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	if _, err := s0.Create(def); err != nil {
		t.Fatal(err)
	}
	s0.Dispatch("doc:origin", map[string]string{"v": "0,0"}, nil)
	s0.Dispatch("doc:right", map[string]string{"v": "1,0"}, nil)

	s1 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	if _, err := s1.Create(def); err != nil {
		t.Fatal(err)
	}
	s1.Dispatch("doc:up", map[string]string{"v": "0,1"}, nil)

	return map[string]*shard.Shard{"s0": s0, "s1": s1}, def
}

func TestSearchKNNMergesAndTruncatesAcrossShards(t *testing.T) {
	shards, def := vectorFixture(t)
	c := newTestCoordinator(shards)

	params := map[string]string{"q": "0.1,0"}
	res := c.Search(context.Background(), SearchRequest{
		Index:  "vidx",
		AST:    parseOn(t, def, "*=>[KNN 2 @v $q AS s]", params),
		Params: params,
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Docs) != 2 {
		t.Fatalf("expected global KNN limit 2, got %d docs: %+v", len(res.Docs), res.Docs)
	}
	if res.Docs[0].Key != "doc:origin" || res.Docs[1].Key != "doc:right" {
		t.Fatalf("expected [doc:origin, doc:right] ascending by distance, got %v/%v", res.Docs[0].Key, res.Docs[1].Key)
	}
}

func TestSearchShardQueryErrorAborts(t *testing.T) {
	def := tagPriceDef(t)
	s0 := shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	if _, err := s0.Create(def); err != nil {
		t.Fatal(err)
	}

	c := newTestCoordinator(map[string]*shard.Shard{"s0": s0})
	// A KNN clause evaluated outside a top-level position is an
	// executor-reported error, not a panic — exercised here via a
	// malformed AST the parser itself would never produce, to drive the
	// shard-error path deterministically.
	res := c.Search(context.Background(), SearchRequest{
		Index: "idx",
		AST:   &query.And{Children: []query.Node{&query.KnnWrap{Field: "price", K: 1, ParamName: "q"}}},
	})
	if res.Err == nil {
		t.Fatal("expected shard-local query error to abort the merge")
	}
}
