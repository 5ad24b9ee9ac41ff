package command

import "sort"

// FT.DICTADD/FT.DICTDEL/FT.DICTDUMP: a named term dictionary scoped to
// one index, a simple side-table in the same spirit as the synonym group
// registry this package already owns. A dictionary is just a named set
// of terms — there is nothing to match entries against besides
// themselves.

// DictAdd runs FT.DICTADD name dict term.... Creates dict if absent.
func (m *Manager) DictAdd(name, dict string, terms []string) (int, error) {
	resolved := m.resolve(name)
	if _, err := m.anyHandle(name); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	byDict, ok := m.dicts[resolved]
	if !ok {
		byDict = make(map[string]map[string]bool)
		m.dicts[resolved] = byDict
	}
	set, ok := byDict[dict]
	if !ok {
		set = make(map[string]bool)
		byDict[dict] = set
	}
	added := 0
	for _, t := range terms {
		if !set[t] {
			set[t] = true
			added++
		}
	}
	return added, nil
}

// DictDel runs FT.DICTDEL name dict term.... Returns the number removed.
func (m *Manager) DictDel(name, dict string, terms []string) (int, error) {
	resolved := m.resolve(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.dicts[resolved][dict]
	if !ok {
		return 0, nil
	}
	removed := 0
	for _, t := range terms {
		if set[t] {
			delete(set, t)
			removed++
		}
	}
	return removed, nil
}

// DictDump runs FT.DICTDUMP name dict: every term in the dictionary,
// sorted for deterministic replies.
func (m *Manager) DictDump(name, dict string) ([]string, error) {
	resolved := m.resolve(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.dicts[resolved][dict]
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
