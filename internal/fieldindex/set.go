package fieldindex

import (
	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// Set is the full collection of typed field indices backing one index on
// one shard: one TagIndex/TextIndex/NumericIndex/VectorIndex per declared
// field, built from the index's Definition. internal/indexer feeds
// documents through Add/Remove; internal/shardexec reads through the
// per-kind accessors.
type Set struct {
	def *schema.Definition

	tags    map[string]*TagIndex
	texts   map[string]*TextIndex
	numbers map[string]*NumericIndex
	vectors map[string]VectorIndex

	// sortCache holds the materialized raw value for every non-NUMERIC
	// field, doubling as both the SORTABLE sort key and the default
	// projection value FT.SEARCH/FT.AGGREGATE return when no RETURN/LOAD
	// clause narrows the field set. NUMERIC fields are served
	// directly by their NumericIndex.Value instead of duplicating the
	// cache.
	sortCache map[string]map[DocID]string
}

// NewSet builds an empty Set with one typed index per field in def.
func NewSet(def *schema.Definition, analyzer analysis.Analyzer) *Set {
	s := &Set{
		def:       def,
		tags:      make(map[string]*TagIndex),
		texts:     make(map[string]*TextIndex),
		numbers:   make(map[string]*NumericIndex),
		vectors:   make(map[string]VectorIndex),
		sortCache: make(map[string]map[DocID]string),
	}
	for _, f := range def.Fields {
		switch f.Type {
		case schema.FieldTag:
			s.tags[f.Alias] = NewTagIndex(f.Tag.Separator, f.Tag.CaseSensitive, f.Tag.WithSuffixTrie)
		case schema.FieldText:
			s.texts[f.Alias] = NewTextIndex(analyzer, def.Stopwords)
		case schema.FieldNumeric:
			s.numbers[f.Alias] = NewNumericIndex(f.Numeric.BlockSize)
		case schema.FieldVector:
			if f.Vector.Algo == schema.VectorHNSW {
				s.vectors[f.Alias] = NewHNSWIndex(f.Vector.Dim, f.Vector.HNSWM, f.Vector.HNSWEFConstruction, f.Vector.Metric)
			} else {
				s.vectors[f.Alias] = NewFlatIndex(f.Vector.Dim, f.Vector.Metric)
			}
		}
		if f.Type == schema.FieldTag || f.Type == schema.FieldText {
			s.sortCache[f.Alias] = make(map[DocID]string)
		}
	}
	return s
}

// Tag returns the TagIndex for alias, or nil if alias is not a TAG field.
func (s *Set) Tag(alias string) *TagIndex { return s.tags[alias] }

// Text returns the TextIndex for alias, or nil if alias is not a TEXT
// field.
func (s *Set) Text(alias string) *TextIndex { return s.texts[alias] }

// Numeric returns the NumericIndex for alias, or nil if alias is not a
// NUMERIC field.
func (s *Set) Numeric(alias string) *NumericIndex { return s.numbers[alias] }

// Vector returns the VectorIndex for alias, or nil if alias is not a
// VECTOR field.
func (s *Set) Vector(alias string) VectorIndex { return s.vectors[alias] }

// AllTextFields returns every TEXT field alias, used for bare-word
// queries that search across all TEXT fields at once.
func (s *Set) AllTextFields() []string {
	out := make([]string, 0, len(s.texts))
	for alias := range s.texts {
		out = append(out, alias)
	}
	return out
}

// AddTag indexes a TAG field value for doc and caches the raw string as
// its sort key (every TAG and TEXT field has a sort cache, SORTABLE or
// not).
func (s *Set) AddTag(doc DocID, alias, value string) {
	if idx := s.tags[alias]; idx != nil {
		idx.Add(doc, value)
	}
	s.cacheSort(alias, doc, value)
}

// AddText indexes a TEXT field value for doc.
func (s *Set) AddText(doc DocID, alias, value string) {
	if idx := s.texts[alias]; idx != nil {
		idx.Add(doc, alias, value)
	}
	s.cacheSort(alias, doc, value)
}

// AddNumeric indexes a NUMERIC field value for doc. The NumericIndex
// itself serves as the SORTABLE cache for this field type.
func (s *Set) AddNumeric(doc DocID, alias string, value float64) {
	if idx := s.numbers[alias]; idx != nil {
		idx.Add(doc, value)
	}
}

// AddVector indexes a VECTOR field value for doc. Returns an error if the
// vector's dimensionality doesn't match the field; callers drop the
// field silently on error per-field failure semantics.
func (s *Set) AddVector(doc DocID, alias string, vec []float32) error {
	idx := s.vectors[alias]
	if idx == nil {
		return nil
	}
	return idx.Add(doc, vec)
}

func (s *Set) cacheSort(alias string, doc DocID, value string) {
	if cache, ok := s.sortCache[alias]; ok {
		cache[doc] = value
	}
}

// SortValue returns the cached SORTABLE string for a non-NUMERIC field,
// used by the shard executor when a SORTBY target isn't NUMERIC.
func (s *Set) SortValue(alias string, doc DocID) (string, bool) {
	cache, ok := s.sortCache[alias]
	if !ok {
		return "", false
	}
	v, ok := cache[doc]
	return v, ok
}

// Remove deletes every typed index's postings for doc, across every
// field in the schema.
func (s *Set) Remove(doc DocID) {
	for _, idx := range s.tags {
		idx.Remove(doc)
	}
	for _, idx := range s.texts {
		idx.Remove(doc)
	}
	for _, idx := range s.numbers {
		idx.Remove(doc)
	}
	for _, idx := range s.vectors {
		idx.Remove(doc)
	}
	for _, cache := range s.sortCache {
		delete(cache, doc)
	}
}
