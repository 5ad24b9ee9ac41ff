package command

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
)

func newTestManager(t *testing.T, shardIDs ...string) *Manager {
	t.Helper()
	shards := make(map[string]*shard.Shard, len(shardIDs))
	for _, id := range shardIDs {
		shards[id] = shard.New(analysis.NewStandardAnalyzer(), nil, nil)
	}
	return New(shards, nil, nil)
}

func mustCreate(t *testing.T, m *Manager, createArgs []string) *schema.Definition {
	t.Helper()
	def, err := ParseCreate(createArgs)
	if err != nil {
		t.Fatalf("ParseCreate: %v", err)
	}
	if err := m.CreateIndex(def); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	return def
}

func fruitCreateArgs() []string {
	return []string{
		"idx", "ON", "HASH", "PREFIX", "1", "doc:",
		"SCHEMA",
		"name", "TAG", "SORTABLE",
		"price", "NUMERIC", "SORTABLE",
	}
}

func TestCreateIndexOnEveryShard(t *testing.T) {
	m := newTestManager(t, "s0", "s1")
	mustCreate(t, m, fruitCreateArgs())

	names := m.List()
	if len(names) != 1 || names[0] != "idx" {
		t.Fatalf("expected [idx], got %v", names)
	}
}

func TestCreateIndexDuplicateFails(t *testing.T) {
	m := newTestManager(t, "s0")
	mustCreate(t, m, fruitCreateArgs())

	def, _ := ParseCreate(fruitCreateArgs())
	if err := m.CreateIndex(def); err == nil {
		t.Fatal("expected ErrIndexExists on duplicate CREATE")
	}
}

func TestDropIndexUnknownFails(t *testing.T) {
	m := newTestManager(t, "s0")
	if err := m.DropIndex("nope", false); err == nil {
		t.Fatal("expected ErrUnknownIndex")
	}
}

func TestCreateSearchAndInfoRoundTrip(t *testing.T) {
	m := newTestManager(t, "s0", "s1")
	mustCreate(t, m, fruitCreateArgs())

	m.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	m.Dispatch("doc:2", map[string]string{"name": "banana", "price": "1.0"}, nil)

	args, err := ParseSearch([]string{"idx", "*"})
	if err != nil {
		t.Fatalf("ParseSearch: %v", err)
	}
	res, err := m.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 2 {
		t.Fatalf("expected 2 hits, got %d", res.TotalHits)
	}

	info, err := m.Info("idx")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(info.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(info.Attributes))
	}
	if info.NumDocs != 2 {
		t.Fatalf("expected num_docs 2, got %d", info.NumDocs)
	}
}

func TestSearchTagFilter(t *testing.T) {
	m := newTestManager(t, "s0")
	mustCreate(t, m, fruitCreateArgs())
	m.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	m.Dispatch("doc:2", map[string]string{"name": "banana", "price": "1.0"}, nil)

	args, err := ParseSearch([]string{"idx", "@name:{apple}"})
	if err != nil {
		t.Fatalf("ParseSearch: %v", err)
	}
	res, err := m.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 1 || res.Docs[0].Key != "doc:1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestTagVals(t *testing.T) {
	m := newTestManager(t, "s0", "s1")
	mustCreate(t, m, fruitCreateArgs())
	m.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	m.Dispatch("doc:2", map[string]string{"name": "banana", "price": "1.0"}, nil)
	m.Dispatch("doc:3", map[string]string{"name": "apple", "price": "2.0"}, nil)

	vals, err := m.TagVals("idx", "name")
	if err != nil {
		t.Fatalf("TagVals: %v", err)
	}
	seen := map[string]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	if !seen["apple"] || !seen["banana"] || len(vals) != 2 {
		t.Fatalf("unexpected tagvals: %v", vals)
	}
}

func TestAggregateGroupByCount(t *testing.T) {
	m := newTestManager(t, "s0", "s1")
	mustCreate(t, m, fruitCreateArgs())
	m.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)
	m.Dispatch("doc:2", map[string]string{"name": "apple", "price": "1.0"}, nil)
	m.Dispatch("doc:3", map[string]string{"name": "banana", "price": "2.0"}, nil)

	args, err := ParseAggregate([]string{
		"idx", "*",
		"GROUPBY", "1", "@name",
		"REDUCE", "COUNT", "0", "AS", "n",
		"SORTBY", "2", "@n", "DESC",
	}, true)
	if err != nil {
		t.Fatalf("ParseAggregate: %v", err)
	}
	rows, err := m.Aggregate(context.Background(), args)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}
	if rows[0]["name"] != "apple" || rows[0]["n"].(float64) != 2 {
		t.Fatalf("expected apple count 2 first, got %+v", rows)
	}
}

func TestAggregateRejectsLegacyFieldNames(t *testing.T) {
	_, err := ParseAggregate([]string{"idx", "*", "GROUPBY", "1", "name"}, true)
	if err == nil {
		t.Fatal("expected error for field name missing '@' prefix")
	}
}

func TestSynUpdateAndSynDump(t *testing.T) {
	m := newTestManager(t, "s0")
	def, err := schema.New("idx", schema.DocHash, "doc:", nil, []schema.FieldSpec{
		{Identifier: "body", Type: schema.FieldText},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CreateIndex(def); err != nil {
		t.Fatal(err)
	}
	m.Dispatch("doc:1", map[string]string{"body": "car"}, nil)
	m.Dispatch("doc:2", map[string]string{"body": "automobile"}, nil)

	if err := m.SynUpdate("idx", "g1", false, []string{"car", "automobile"}); err != nil {
		t.Fatalf("SynUpdate: %v", err)
	}

	args, err := ParseSearch([]string{"idx", "@body:car"})
	if err != nil {
		t.Fatalf("ParseSearch: %v", err)
	}
	res, err := m.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 2 {
		t.Fatalf("expected synonym match to find both docs, got %d", res.TotalHits)
	}

	dump, err := m.SynDump("idx")
	if err != nil {
		t.Fatalf("SynDump: %v", err)
	}
	if len(dump["car"]) != 1 || dump["car"][0] != "g1" {
		t.Fatalf("unexpected syndump: %+v", dump)
	}
}

func TestAliasAddResolvesSearch(t *testing.T) {
	m := newTestManager(t, "s0")
	mustCreate(t, m, fruitCreateArgs())
	m.Dispatch("doc:1", map[string]string{"name": "apple", "price": "3.5"}, nil)

	if err := m.AliasAdd("alias1", "idx"); err != nil {
		t.Fatalf("AliasAdd: %v", err)
	}
	args, err := ParseSearch([]string{"alias1", "*"})
	if err != nil {
		t.Fatalf("ParseSearch: %v", err)
	}
	res, err := m.Search(context.Background(), args)
	if err != nil {
		t.Fatalf("Search via alias: %v", err)
	}
	if res.TotalHits != 1 {
		t.Fatalf("expected 1 hit via alias, got %d", res.TotalHits)
	}
}

func TestDictAddDumpDel(t *testing.T) {
	m := newTestManager(t, "s0")
	mustCreate(t, m, fruitCreateArgs())

	if _, err := m.DictAdd("idx", "d1", []string{"x", "y"}); err != nil {
		t.Fatalf("DictAdd: %v", err)
	}
	dump, err := m.DictDump("idx", "d1")
	if err != nil {
		t.Fatalf("DictDump: %v", err)
	}
	if len(dump) != 2 {
		t.Fatalf("expected 2 terms, got %v", dump)
	}
	if removed, err := m.DictDel("idx", "d1", []string{"x"}); err != nil || removed != 1 {
		t.Fatalf("DictDel: removed=%d err=%v", removed, err)
	}
}

func TestExplainRendersKnownNodeKinds(t *testing.T) {
	m := newTestManager(t, "s0")
	mustCreate(t, m, fruitCreateArgs())

	out, err := m.Explain("idx", "@name:{apple}")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty explain output")
	}
}
