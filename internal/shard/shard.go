// Package shard holds one shard's indices: a single-threaded owner of a
// disjoint key partition and every FT.CREATE'd index over it. A Shard
// tracks its current index generation with an atomically swapped
// in-memory Handle rather than reference-counted disk segments, since
// this engine has no segments to reclaim, only the current Set to
// replace on FT.ALTER.
package shard

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/embed"
	"github.com/kailas-cloud/ftsearch/internal/fieldindex"
	"github.com/kailas-cloud/ftsearch/internal/indexer"
	"github.com/kailas-cloud/ftsearch/internal/schema"
)

var (
	ErrIndexExists   = errors.New("shard: index already exists")
	ErrUnknownIndex  = errors.New("shard: unknown index name")
)

// RawDoc is a single key's raw content as read back from the key-value
// store collaborator (, out of scope here), used by Alter to re-scan
// every key under an index's prefix after a schema extension.
type RawDoc struct {
	Key         string
	HashFields  map[string]string // set for DocHash documents
	JSON        []byte            // set for DocJSON documents
}

// Handle is one immutable generation of an index: its Definition, the
// field.Set built from it, and the Indexer that feeds documents into
// that Set. FT.ALTER produces a new Handle and atomically swaps it in;
// in-flight reads holding the old *Handle keep seeing a consistent view.
type Handle struct {
	Generation uint64
	Def        *schema.Definition
	Set        *fieldindex.Set
	Indexer    *indexer.Indexer
}

// index is the mutable cell holding the current generation's Handle.
type index struct {
	name string
	cur  atomic.Pointer[Handle]
}

func (ix *index) Load() *Handle { return ix.cur.Load() }

// Shard owns every index over one key partition.
type Shard struct {
	analyzer analysis.Analyzer
	embedder embed.Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	indices map[string]*index
}

// New creates an empty Shard. embedder may be nil.
func New(analyzer analysis.Analyzer, embedder embed.Embedder, logger *zap.Logger) *Shard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shard{
		analyzer: analyzer,
		embedder: embedder,
		logger:   logger,
		indices:  make(map[string]*index),
	}
}

// Create builds a brand new index from def (FT.CREATE). Returns
// ErrIndexExists if the name is already registered on this shard.
func (s *Shard) Create(def *schema.Definition) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indices[def.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrIndexExists, def.Name)
	}

	h := s.buildHandle(1, def)
	ix := &index{name: def.Name}
	ix.cur.Store(h)
	s.indices[def.Name] = ix

	s.logger.Info("shard: index created", zap.String("index", def.Name))
	return h, nil
}

// Lookup returns the current Handle for name, or ErrUnknownIndex.
func (s *Shard) Lookup(name string) (*Handle, error) {
	s.mu.RLock()
	ix, ok := s.indices[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	return ix.Load(), nil
}

// Names returns every registered index name, for FT._LIST.
func (s *Shard) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indices))
	for name := range s.indices {
		names = append(names, name)
	}
	return names
}

// Drop removes an index entirely (FT.DROPINDEX). Returns ErrUnknownIndex
// if absent.
func (s *Shard) Drop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	delete(s.indices, name)
	s.logger.Info("shard: index dropped", zap.String("index", name))
	return nil
}

// Alter merges extra into the index's current schema, builds a fresh
// generation from scratch, replays every document rescan returns, and
// atomically swaps the new Handle in (FT.ALTER). rescan is called
// once with the merged Definition's prefix and kind; it is the
// caller's job to supply every matching key's current raw content (the
// kvstore collaborator owns that scan, not this package).
func (s *Shard) Alter(name string, extra []schema.FieldSpec, rescan func(prefix string, kind schema.DocKind) []RawDoc) (*Handle, error) {
	s.mu.Lock()
	ix, ok := s.indices[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}

	old := ix.Load()
	merged, err := old.Def.Merge(extra)
	if err != nil {
		return nil, err
	}

	next := s.buildHandle(old.Generation+1, merged)
	for _, doc := range rescan(merged.Prefix, merged.DocKind) {
		switch {
		case doc.JSON != nil:
			if err := next.Indexer.AddJSON(doc.Key, doc.JSON); err != nil {
				s.logger.Warn("shard: alter rescan dropped document",
					zap.String("index", name), zap.String("key", doc.Key), zap.Error(err))
			}
		default:
			if err := next.Indexer.AddHash(doc.Key, doc.HashFields); err != nil {
				s.logger.Warn("shard: alter rescan dropped document",
					zap.String("index", name), zap.String("key", doc.Key), zap.Error(err))
			}
		}
	}

	ix.cur.Store(next)
	s.logger.Info("shard: index altered", zap.String("index", name), zap.Uint64("generation", next.Generation))
	return next, nil
}

// Dispatch feeds a key's current content into every index whose prefix
// matches, adding or updating the document on each.
func (s *Shard) Dispatch(key string, hashFields map[string]string, jsonDoc []byte) {
	for _, h := range s.matchingHandles(key) {
		if jsonDoc != nil {
			_ = h.Indexer.AddJSON(key, jsonDoc)
		} else {
			_ = h.Indexer.AddHash(key, hashFields)
		}
	}
}

// Remove deletes key from every index whose prefix matches.
func (s *Shard) Remove(key string) {
	for _, h := range s.matchingHandles(key) {
		h.Indexer.Delete(key)
	}
}

func (s *Shard) matchingHandles(key string) []*Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Handle
	for _, ix := range s.indices {
		h := ix.Load()
		if h.Def.MatchesKey(key) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Shard) buildHandle(generation uint64, def *schema.Definition) *Handle {
	set := fieldindex.NewSet(def, s.analyzer)
	return &Handle{
		Generation: generation,
		Def:        def,
		Set:        set,
		Indexer:    indexer.New(def, set, s.embedder, s.logger),
	}
}
