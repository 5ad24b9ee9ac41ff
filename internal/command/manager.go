// Package command implements the FT.* command surface: argument parsing
// for each command, dispatch across every shard, and reply shaping.
// internal/transport/http exposes a chi-routed HTTP surface over the
// same Manager methods.
package command

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/coordinator"
	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

var (
	ErrIndexExists  = errors.New("command: index already exists")
	ErrUnknownIndex = errors.New("command: unknown index name")
)

// DocSource lets FT.ALTER replay every key under an index's prefix into
// the freshly-rebuilt generation. It is the seam to the out-of-scope key-value store
// collaborator (internal/kvstore implements it); a Manager with no
// DocSource configured still rebuilds the schema, it just can't backfill
// documents that existed before the ADD.
type DocSource interface {
	Scan(shardID, prefix string, kind schema.DocKind) []shard.RawDoc
}

// Manager owns every shard, the single-hop coordinator, and the
// non-invariant-bearing side tables (synonym groups, dictionaries, index
// aliases) that the command surface needs but internal/shard doesn't
// know about. One Manager is the whole in-process deployment: there is
// no separate "client" object, since every shard lives in this process.
type Manager struct {
	mu        sync.RWMutex
	shardIDs  []string
	shards    map[string]*shard.Shard
	coord     *coordinator.Coordinator
	docSource DocSource
	loader    shardexec.Loader
	logger    *zap.Logger

	synonyms *synonymRegistry
	aliases  map[string]string // alias name -> real index name
	dicts    map[string]map[string]map[string]bool // index -> dict name -> term set
}

// New creates a Manager over shards, keyed by shard ID. docSource may be
// nil (see DocSource).
func New(shards map[string]*shard.Shard, docSource DocSource, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := make([]string, 0, len(shards))
	for id := range shards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Manager{
		shardIDs:  ids,
		shards:    shards,
		coord:     coordinator.New(coordinator.DefaultConfig(), shards, logger),
		docSource: docSource,
		logger:    logger,
		synonyms:  newSynonymRegistry(),
		aliases:   make(map[string]string),
		dicts:     make(map[string]map[string]map[string]bool),
	}
}

// SetLoader installs the callback FT.SEARCH's LOAD clause and
// FT.AGGREGATE's LOAD stage use to re-read a key's raw document content
//. Typically backed by the kvstore collaborator.
func (m *Manager) SetLoader(loader shardexec.Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loader = loader
}

func (m *Manager) getLoader() shardexec.Loader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loader
}

// resolve follows the alias table, so every command can take either a
// real index name or an FT.ALIASADD'd alias interchangeably.
func (m *Manager) resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if real, ok := m.aliases[name]; ok {
		return real
	}
	return name
}

// anyHandle returns one shard's current Handle for name, used by
// commands that only need the (shard-invariant) schema, not a query
// result — FT.INFO, FT.EXPLAIN, FT.TAGVALS' field check.
func (m *Manager) anyHandle(name string) (*shard.Handle, error) {
	name = m.resolve(name)
	for _, id := range m.shardIDs {
		h, err := m.shards[id].Lookup(name)
		if err == nil {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
}

// CreateIndex runs FT.CREATE: builds def on every shard, or none (:
// "commands never partially applied"). Returns ErrIndexExists if any
// shard already has the name. When a shard fails, the index is dropped
// again from the shards this call already created it on before the
// error is returned.
func (m *Manager) CreateIndex(def *schema.Definition) error {
	created := make([]string, 0, len(m.shardIDs))
	for _, id := range m.shardIDs {
		if _, err := m.shards[id].Create(def); err != nil {
			for _, done := range created {
				_ = m.shards[done].Drop(def.Name)
			}
			if errors.Is(err, shard.ErrIndexExists) {
				return fmt.Errorf("%w: %q", ErrIndexExists, def.Name)
			}
			return err
		}
		created = append(created, id)
	}
	return nil
}

// DropIndex runs FT.DROPINDEX: drops name on every shard that has it.
// ddDropDocs is accepted (the RediSearch "DD" flag removing indexed
// documents from the keyspace, not just from the index) but has no
// effect — this module owns no keyspace of its own to delete from; the
// out-of-scope kvstore collaborator owns that.
func (m *Manager) DropIndex(name string, ddDropDocs bool) error {
	name = m.resolve(name)
	found := false
	for _, id := range m.shardIDs {
		if err := m.shards[id].Drop(name); err == nil {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	m.mu.Lock()
	m.synonyms.dropIndex(name)
	delete(m.dicts, name)
	for alias, real := range m.aliases {
		if real == name {
			delete(m.aliases, alias)
		}
	}
	m.mu.Unlock()
	return nil
}

// AlterIndex runs FT.ALTER SCHEMA ADD: merges extra into name's schema on
// every shard and rebuilds that shard's generation from the DocSource's
// scan, atomically per shard.
func (m *Manager) AlterIndex(name string, extra []schema.FieldSpec) error {
	name = m.resolve(name)
	found := false
	for _, id := range m.shardIDs {
		shardID := id
		rescan := func(prefix string, kind schema.DocKind) []shard.RawDoc {
			if m.docSource == nil {
				return nil
			}
			return m.docSource.Scan(shardID, prefix, kind)
		}
		if _, err := m.shards[id].Alter(name, extra, rescan); err != nil {
			if errors.Is(err, shard.ErrUnknownIndex) {
				continue
			}
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
	return nil
}

// List runs FT._LIST: every distinct index name registered on any shard.
func (m *Manager) List() []string {
	seen := make(map[string]bool)
	for _, id := range m.shardIDs {
		for _, n := range m.shards[id].Names() {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Dispatch feeds key's current content into every shard index matching
// key, routed to the one shard that owns key's partition.
func (m *Manager) Dispatch(key string, hashFields map[string]string, jsonDoc []byte) {
	m.shards[m.shardFor(key)].Dispatch(key, hashFields, jsonDoc)
}

// Remove deletes key from every index on the shard that owns it.
func (m *Manager) Remove(key string) {
	m.shards[m.shardFor(key)].Remove(key)
}

// shardFor partitions keys across shards by FNV-1a hash mod shard count;
// every shard's Dispatch/Remove only ever needs to be called for keys it
// owns, so this is the one place that decides ownership.
func (m *Manager) shardFor(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shardIDs[h.Sum32()%uint32(len(m.shardIDs))]
}

func (m *Manager) context(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
