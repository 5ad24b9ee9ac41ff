// Package fieldindex implements the four typed per-field data structures
// a shard maintains for an index: TAG posting lists, an inverted TEXT
// index, a block-based sorted NUMERIC tree, and a FLAT or HNSW VECTOR
// index. Operations are per shard: add(doc_id, values), remove(doc_id),
// match(predicate) → doc_id set + optional scores.
//
// Postings are exposed as engine.PostingsIterator so the shard-local
// executor (internal/shardexec) composes them with internal/engine's
// conjunction/disjunction iterators unchanged.
package fieldindex

import "sort"

// DocID is the shard-local internal document identifier. A shard assigns
// DocIDs monotonically as documents are ingested; the mapping back to the
// document's real key lives in internal/indexer.
type DocID = uint32

// sortedDocSet maintains document ids in ascending order for O(log n)
// membership and O(n) union/intersection via the engine iterators.
type sortedDocSet struct {
	ids []DocID
}

func (s *sortedDocSet) add(id DocID) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		return
	}
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
}

func (s *sortedDocSet) remove(id DocID) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
}

func (s *sortedDocSet) contains(id DocID) bool {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i < len(s.ids) && s.ids[i] == id
}

func (s *sortedDocSet) len() int { return len(s.ids) }
