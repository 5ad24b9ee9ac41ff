package schema

import "testing"

func TestNewRejectsDuplicateAlias(t *testing.T) {
	fields := []FieldSpec{
		{Identifier: "name", Alias: "n", Type: FieldTag, Tag: DefaultTagParams()},
		{Identifier: "title", Alias: "n", Type: FieldText},
	}
	if _, err := New("idx", DocHash, "doc:", nil, fields); err == nil {
		t.Fatal("expected duplicate alias error, got nil")
	}
}

func TestNewDefaultsAliasToIdentifier(t *testing.T) {
	fields := []FieldSpec{
		{Identifier: "price", Type: FieldNumeric, Numeric: DefaultNumericParams()},
	}
	def, err := New("idx", DocHash, "doc:", nil, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Fields[0].Alias != "price" {
		t.Fatalf("expected alias to default to identifier, got %q", def.Fields[0].Alias)
	}
}

func TestNewRejectsZeroDim(t *testing.T) {
	fields := []FieldSpec{
		{Identifier: "v", Type: FieldVector, Vector: VectorParams{Dim: 0}},
	}
	if _, err := New("idx", DocHash, "doc:", nil, fields); err == nil {
		t.Fatal("expected dim>0 validation error, got nil")
	}
}

func TestNewValidatesJSONPaths(t *testing.T) {
	fields := []FieldSpec{
		{Identifier: "not a path", Type: FieldTag, Tag: DefaultTagParams()},
	}
	if _, err := New("idx", DocJSON, "doc:", nil, fields); err == nil {
		t.Fatal("expected invalid JSON path error, got nil")
	}

	fields[0].Identifier = "$.name"
	if _, err := New("idx", DocJSON, "doc:", nil, fields); err != nil {
		t.Fatalf("expected valid JSON path to pass, got %v", err)
	}
}

func TestMergePreservesOriginal(t *testing.T) {
	fields := []FieldSpec{
		{Identifier: "name", Type: FieldTag, Tag: DefaultTagParams()},
	}
	def, err := New("idx", DocHash, "doc:", nil, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged, err := def.Merge([]FieldSpec{
		{Identifier: "price", Type: FieldNumeric, Numeric: DefaultNumericParams()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.Fields) != 1 {
		t.Fatalf("original definition mutated: %d fields", len(def.Fields))
	}
	if len(merged.Fields) != 2 {
		t.Fatalf("expected 2 merged fields, got %d", len(merged.Fields))
	}
}

func TestMatchesKey(t *testing.T) {
	def := &Definition{Prefix: "doc:"}
	if !def.MatchesKey("doc:1") {
		t.Error("expected doc:1 to match prefix doc:")
	}
	if def.MatchesKey("other:1") {
		t.Error("expected other:1 to not match prefix doc:")
	}
}
