package command

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// synonymRegistry tracks FT.SYNUPDATE's group_id -> terms mapping per
// index, purely for FT.SYNDUMP's reply; the actual bidirectional matching is delegated entirely to
// fieldindex.TextIndex.AddSynonymGroup, which every TEXT field already
// supports from the single-field synonym work. This
// registry exists because the index's TextIndex itself has no notion of
// group IDs — it only tracks which terms are mutually interchangeable.
type synonymRegistry struct {
	// index -> group_id -> terms
	groups map[string]map[string][]string
}

func newSynonymRegistry() *synonymRegistry {
	return &synonymRegistry{groups: make(map[string]map[string][]string)}
}

func (r *synonymRegistry) update(index, groupID string, terms []string) {
	idx, ok := r.groups[index]
	if !ok {
		idx = make(map[string][]string)
		r.groups[index] = idx
	}
	idx[groupID] = append(append([]string{}, idx[groupID]...), terms...)
}

func (r *synonymRegistry) dump(index string) map[string][]string {
	out := make(map[string][]string)
	for groupID, terms := range r.groups[index] {
		for _, t := range terms {
			out[t] = append(out[t], groupID)
		}
	}
	for t, ids := range out {
		sort.Strings(ids)
		out[t] = ids
	}
	return out
}

func (r *synonymRegistry) dropIndex(index string) {
	delete(r.groups, index)
}

// SynUpdate runs FT.SYNUPDATE name group_id [SKIPINITIALSCAN] term.... It
// registers group_id -> terms for FT.SYNDUMP and adds the same clique to
// every TEXT field's TextIndex on every shard, so a subsequent search for
// any term in the group matches documents indexed under any other term
// in the group. skipInitialScan is accepted and has no effect: this
// implementation's synonym matching is query-time term expansion, not a
// document re-index, so there is no initial scan to skip in the first
// place.
func (m *Manager) SynUpdate(name, groupID string, skipInitialScan bool, terms []string) error {
	if len(terms) == 0 {
		return fmt.Errorf("command: SYNUPDATE requires at least one term")
	}
	resolved := m.resolve(name)

	found := false
	for _, id := range m.shardIDs {
		h, err := m.shards[id].Lookup(resolved)
		if err != nil {
			continue
		}
		found = true
		for _, f := range h.Def.Fields {
			if f.Type != schema.FieldText {
				continue
			}
			h.Set.Text(f.Alias).AddSynonymGroup(terms)
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}

	m.mu.Lock()
	m.synonyms.update(resolved, groupID, terms)
	m.mu.Unlock()
	return nil
}

// SynDump runs FT.SYNDUMP name: every term mapped to the sorted list of
// group IDs it belongs to.
func (m *Manager) SynDump(name string) (map[string][]string, error) {
	resolved := m.resolve(name)
	if _, err := m.anyHandle(name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synonyms.dump(resolved), nil
}
