// Package schema describes the index definition model: the field schema
// and per-type parameters that a FT.CREATE/FT.ALTER command attaches to an
// index, covering the TAG/TEXT/NUMERIC/VECTOR model.
package schema

import (
	"errors"
	"fmt"
)

// DocKind is the document encoding an index expects under its prefix.
type DocKind int

const (
	DocHash DocKind = iota
	DocJSON
)

// Schema limits.
const (
	MaxFieldsPerSchema = 256
	MaxAliasLength     = 255
)

var (
	ErrDuplicateAlias  = errors.New("schema: duplicate field alias")
	ErrFieldLimit      = errors.New("schema: exceeds maximum field count")
	ErrInvalidJSONPath = errors.New("schema: invalid JSON path for identifier")
	ErrNoSchema        = errors.New("schema: SCHEMA clause must declare at least one field")
)

// Definition is the immutable index definition: document kind, key prefix,
// stopwords, and the ordered field schema. It never changes in place —
// FT.ALTER builds a new Definition and the shard swaps it in atomically
// (see internal/shard).
type Definition struct {
	Name      string
	DocKind   DocKind
	Prefix    string
	Stopwords map[string]bool

	// Fields preserves SCHEMA declaration order; Search-by-alias and
	// Search-by-identifier indexes are derived, not authoritative.
	Fields []FieldSpec
}

// New validates and constructs a Definition from its declared fields.
func New(name string, kind DocKind, prefix string, stopwords []string, fields []FieldSpec) (*Definition, error) {
	if len(fields) == 0 {
		return nil, ErrNoSchema
	}
	if len(fields) > MaxFieldsPerSchema {
		return nil, fmt.Errorf("%w: %d fields (max %d)", ErrFieldLimit, len(fields), MaxFieldsPerSchema)
	}

	seenAlias := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Alias == "" {
			f.Alias = f.Identifier
		}
		if len(f.Alias) > MaxAliasLength {
			return nil, fmt.Errorf("schema: alias %q exceeds maximum length", f.Alias)
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if seenAlias[f.Alias] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAlias, f.Alias)
		}
		seenAlias[f.Alias] = true

		if kind == DocJSON {
			if err := ValidateJSONPath(f.Identifier); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidJSONPath, f.Identifier, err)
			}
		}
	}

	sw := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		sw[w] = true
	}

	return &Definition{
		Name:      name,
		DocKind:   kind,
		Prefix:    prefix,
		Stopwords: sw,
		Fields:    fields,
	}, nil
}

// ByAlias returns the FieldSpec for the given query-visible alias.
func (d *Definition) ByAlias(alias string) (*FieldSpec, bool) {
	for i := range d.Fields {
		if d.Fields[i].Alias == alias {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// ByIdentifier returns the FieldSpec for the given source identifier.
func (d *Definition) ByIdentifier(identifier string) (*FieldSpec, bool) {
	for i := range d.Fields {
		if d.Fields[i].Identifier == identifier {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Merge returns a new Definition with additional fields appended, as used
// by FT.ALTER SCHEMA ADD. The original Definition is left untouched; the
// schema is immutable after creation.
func (d *Definition) Merge(extra []FieldSpec) (*Definition, error) {
	merged := make([]FieldSpec, 0, len(d.Fields)+len(extra))
	merged = append(merged, d.Fields...)
	merged = append(merged, extra...)

	stopwords := make([]string, 0, len(d.Stopwords))
	for w := range d.Stopwords {
		stopwords = append(stopwords, w)
	}

	return New(d.Name, d.DocKind, d.Prefix, stopwords, merged)
}

// MatchesKey reports whether a key falls under this index's prefix.
func (d *Definition) MatchesKey(key string) bool {
	if d.Prefix == "" {
		return true
	}
	return len(key) >= len(d.Prefix) && key[:len(d.Prefix)] == d.Prefix
}
