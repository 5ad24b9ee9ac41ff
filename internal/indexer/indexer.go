// Package indexer extracts schema-typed field values out of a raw HASH
// or JSON document and feeds them into an index's field.Set, covering
// the TAG/TEXT/NUMERIC/VECTOR field model.
package indexer

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/embed"
	"github.com/kailas-cloud/ftsearch/internal/fieldindex"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// DocID is re-exported for callers that only import indexer.
type DocID = fieldindex.DocID

// Indexer owns the doc-id allocation and field extraction for one index
// on one shard. Only one Indexer logically writes to a given Set — the
// shard's single-threaded execution model makes an internal lock
// unnecessary, but AddHash/AddJSON/Delete still take a belt-and-suspenders
// mutex since documents may be fed by more than one caller during a
// replay or warm scan.
type Indexer struct {
	def      *schema.Definition
	set      *fieldindex.Set
	embedder embed.Embedder
	logger   *zap.Logger

	mu        sync.Mutex
	keyToDoc  map[string]DocID
	docToKey  map[DocID]string
	nextDocID DocID
}

// New creates an Indexer bound to def's Set. embedder may be nil; it is
// only consulted when a schema declares a TEXT identifier and a VECTOR
// field sharing the same source identifier — an optional convenience
// path, never required.
func New(def *schema.Definition, set *fieldindex.Set, embedder embed.Embedder, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		def:      def,
		set:      set,
		embedder: embedder,
		logger:   logger,
		keyToDoc: make(map[string]DocID),
		docToKey: make(map[DocID]string),
	}
}

// DocKey returns the key for an internal doc id, used by the shard
// executor to build SerializedSearchDoc.
func (ix *Indexer) DocKey(doc DocID) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	k, ok := ix.docToKey[doc]
	return k, ok
}

// AddHash indexes a HASH document: fields is the flat field-name → raw
// string map a HSET would produce. A field absent from fields is simply
// skipped; a field present but malformed for its declared type is
// dropped silently for that field only and logged once.
func (ix *Indexer) AddHash(key string, fields map[string]string) error {
	doc, existed := ix.allocate(key)
	if existed {
		ix.set.Remove(doc)
	}
	for i := range ix.def.Fields {
		spec := &ix.def.Fields[i]
		raw, ok := fields[spec.Identifier]
		if !ok {
			continue
		}
		ix.indexField(doc, spec, raw)
	}
	ix.maybeEmbed(doc, fields)
	return nil
}

// AddJSON indexes a JSON document: raw is the full encoded document and
// each field's Identifier is a JSON path ("$.foo.bar[0]") resolved
// against it.
func (ix *Indexer) AddJSON(key string, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("indexer: invalid JSON document for key %q: %w", key, err)
	}

	doc, existed := ix.allocate(key)
	if existed {
		ix.set.Remove(doc)
	}
	for i := range ix.def.Fields {
		spec := &ix.def.Fields[i]
		val, ok := resolveJSONPath(parsed, spec.Identifier)
		if !ok {
			continue
		}
		str, ok := jsonValueToString(val)
		if !ok {
			ix.logger.Warn("indexer: dropping malformed JSON field",
				zap.String("index", ix.def.Name), zap.String("field", spec.Alias))
			continue
		}
		ix.indexField(doc, spec, str)
	}
	return nil
}

// Delete removes key's document from every field index and forgets its
// doc-id mapping. A key that was never indexed is a no-op.
func (ix *Indexer) Delete(key string) {
	ix.mu.Lock()
	doc, ok := ix.keyToDoc[key]
	if ok {
		delete(ix.keyToDoc, key)
		delete(ix.docToKey, doc)
	}
	ix.mu.Unlock()

	if ok {
		ix.set.Remove(doc)
	}
}

// AllDocIDs returns every currently indexed doc id, sorted ascending.
// Used by the shard executor to evaluate "*" and NOT subtrees, which
// need the universe of indexed documents rather than any single field's
// postings.
func (ix *Indexer) AllDocIDs() []DocID {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]DocID, 0, len(ix.docToKey))
	for doc := range ix.docToKey {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// allocate returns the doc-id for key, allocating a new one if key
// hasn't been seen before. The second return value reports whether key
// already had a doc-id (a re-index, which must clear prior field state
// before indexing the new values).
func (ix *Indexer) allocate(key string) (DocID, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if doc, ok := ix.keyToDoc[key]; ok {
		return doc, true
	}
	doc := ix.nextDocID
	ix.nextDocID++
	ix.keyToDoc[key] = doc
	ix.docToKey[doc] = key
	return doc, false
}

// indexField dispatches a single raw field value to its typed index,
// converting as needed and dropping on malformed input.
func (ix *Indexer) indexField(doc DocID, spec *schema.FieldSpec, raw string) {
	if spec.Flags.NoIndex() {
		return
	}
	switch spec.Type {
	case schema.FieldTag:
		ix.set.AddTag(doc, spec.Alias, raw)
	case schema.FieldText:
		ix.set.AddText(doc, spec.Alias, raw)
	case schema.FieldNumeric:
		v, err := parseFloat(raw)
		if err != nil {
			ix.logger.Warn("indexer: dropping malformed numeric field",
				zap.String("index", ix.def.Name), zap.String("field", spec.Alias), zap.String("value", raw))
			return
		}
		ix.set.AddNumeric(doc, spec.Alias, v)
	case schema.FieldVector:
		vec, err := parseVector(raw, spec.Vector.Dim)
		if err != nil {
			ix.logger.Warn("indexer: dropping malformed vector field",
				zap.String("index", ix.def.Name), zap.String("field", spec.Alias), zap.Error(err))
			return
		}
		if err := ix.set.AddVector(doc, spec.Alias, vec); err != nil {
			ix.logger.Warn("indexer: dropping vector field",
				zap.String("index", ix.def.Name), zap.String("field", spec.Alias), zap.Error(err))
		}
	}
}

// maybeEmbed turns a TEXT field's content into a VECTOR field's value
// when a schema declares both under the same source identifier and an
// Embedder is configured (optional convenience path; never required).
func (ix *Indexer) maybeEmbed(doc DocID, fields map[string]string) {
	if ix.embedder == nil {
		return
	}
	for i := range ix.def.Fields {
		vecSpec := &ix.def.Fields[i]
		if vecSpec.Type != schema.FieldVector {
			continue
		}
		text, ok := fields[vecSpec.Identifier]
		if !ok {
			continue
		}
		hasTextTwin := false
		for j := range ix.def.Fields {
			if ix.def.Fields[j].Identifier == vecSpec.Identifier && ix.def.Fields[j].Type == schema.FieldText {
				hasTextTwin = true
				break
			}
		}
		if !hasTextTwin {
			continue
		}
		vec, err := ix.embedder.Embed(text)
		if err != nil {
			ix.logger.Warn("indexer: embedding failed, dropping vector field",
				zap.String("index", ix.def.Name), zap.String("field", vecSpec.Alias), zap.Error(err))
			continue
		}
		if err := ix.set.AddVector(doc, vecSpec.Alias, vec); err != nil {
			ix.logger.Warn("indexer: embedded vector dropped",
				zap.String("index", ix.def.Name), zap.String("field", vecSpec.Alias), zap.Error(err))
		}
	}
}
