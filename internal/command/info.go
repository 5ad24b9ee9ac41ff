package command

import (
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/metrics"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// AttributeDescriptor is one FT.INFO attributes[] entry: the
// identifier/alias/type plus whichever flags apply, in the exact shape
// RESP expects to flatten it as ["identifier", id, "attribute", alias,
// "type", T, ...]. internal/transport/http renders this as JSON instead
// of a flat RESP array; the field order here is what matters, not the
// wire encoding.
type AttributeDescriptor struct {
	Identifier string
	Alias      string
	Type       string
	NoIndex    bool
	Sortable   bool
	BlockSize  int // > 0 only for NUMERIC
}

// InfoReply is FT.INFO's reply.
type InfoReply struct {
	IndexName  string
	KeyType    string // "HASH" or "JSON"
	Prefix     string
	Attributes []AttributeDescriptor
	NumDocs    int
}

// Info runs FT.INFO: attributes in schema declaration order ( invariant
// "FT.INFO lists exactly |F| attributes in insertion order"), num_docs
// summed across every shard.
func (m *Manager) Info(name string) (InfoReply, error) {
	h, err := m.anyHandle(name)
	if err != nil {
		return InfoReply{}, err
	}

	attrs := make([]AttributeDescriptor, len(h.Def.Fields))
	for i, f := range h.Def.Fields {
		a := AttributeDescriptor{
			Identifier: f.Identifier,
			Alias:      f.Alias,
			Type:       f.Type.String(),
			NoIndex:    f.Flags.NoIndex(),
			Sortable:   f.Flags.Sortable(),
		}
		if f.Type == schema.FieldNumeric {
			a.BlockSize = f.Numeric.BlockSize
		}
		attrs[i] = a
	}

	keyType := "HASH"
	if h.Def.DocKind == schema.DocJSON {
		keyType = "JSON"
	}

	numDocs := 0
	resolved := m.resolve(name)
	for _, id := range m.shardIDs {
		if sh, err := m.shards[id].Lookup(resolved); err == nil {
			numDocs += len(sh.Indexer.AllDocIDs())
		}
	}

	metrics.IndexDocs.WithLabelValues(h.Def.Name).Set(float64(numDocs))

	return InfoReply{
		IndexName:  h.Def.Name,
		KeyType:    keyType,
		Prefix:     h.Def.Prefix,
		Attributes: attrs,
		NumDocs:    numDocs,
	}, nil
}

// TagVals runs FT.TAGVALS name field: the union of distinct values across
// every shard's TagIndex for field.
func (m *Manager) TagVals(name, field string) ([]string, error) {
	resolved := m.resolve(name)
	seen := make(map[string]bool)
	found := false
	for _, id := range m.shardIDs {
		h, err := m.shards[id].Lookup(resolved)
		if err != nil {
			continue
		}
		tag := h.Set.Tag(field)
		if tag == nil {
			continue
		}
		found = true
		for _, v := range tag.Values() {
			seen[v] = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return out, nil
}
