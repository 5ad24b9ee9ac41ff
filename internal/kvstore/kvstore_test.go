package kvstore

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutHashAndLoader(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutHash(ctx, "s0", "doc:1", map[string]string{"name": "apple"}); err != nil {
		t.Fatalf("PutHash: %v", err)
	}

	fields, jsonDoc, ok := s.Loader("doc:1")
	if !ok {
		t.Fatal("expected loader hit")
	}
	if jsonDoc != nil {
		t.Fatalf("expected nil json doc, got %v", jsonDoc)
	}
	if fields["name"] != "apple" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestPutJSONAndLoader(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutJSON(ctx, "s0", "doc:2", []byte(`{"name":"banana"}`)); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	fields, jsonDoc, ok := s.Loader("doc:2")
	if !ok {
		t.Fatal("expected loader hit")
	}
	if fields != nil {
		t.Fatalf("expected nil fields, got %v", fields)
	}
	if string(jsonDoc) != `{"name":"banana"}` {
		t.Fatalf("unexpected json doc: %s", jsonDoc)
	}
}

func TestLoaderMissingKey(t *testing.T) {
	s := newTestStore(t)
	if _, _, ok := s.Loader("nope"); ok {
		t.Fatal("expected loader miss")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.PutHash(ctx, "s0", "doc:3", map[string]string{"x": "y"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "doc:3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, ok := s.Loader("doc:3"); ok {
		t.Fatal("expected loader miss after delete")
	}
}

func TestScanByPrefixAndShard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.PutHash(ctx, "s0", "doc:1", map[string]string{"name": "apple"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutHash(ctx, "s0", "doc:2", map[string]string{"name": "banana"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutHash(ctx, "s1", "doc:3", map[string]string{"name": "cherry"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutHash(ctx, "s0", "other:4", map[string]string{"name": "date"}); err != nil {
		t.Fatal(err)
	}

	docs := s.Scan("s0", "doc:", schema.DocHash)
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs for s0/doc:, got %d: %+v", len(docs), docs)
	}
}

func TestScanJSONKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.PutJSON(ctx, "s0", "doc:1", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}

	docs := s.Scan("s0", "doc:", schema.DocJSON)
	if len(docs) != 1 || string(docs[0].JSON) != `{"a":1}` {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}
