package command

import "fmt"

// FT.ALIASADD/FT.ALIASUPDATE/FT.ALIASDEL: a one-hop indirection over the
// "index by name" lookup every other
// command already does through Manager.resolve. An alias can point at
// only one index at a time; ALIASUPDATE reassigns it without requiring a
// prior DEL.

var ErrAliasExists = fmt.Errorf("command: alias already assigned")

// AliasAdd runs FT.ALIASADD alias index. Fails if alias already exists
// (use AliasUpdate to reassign).
func (m *Manager) AliasAdd(alias, index string) error {
	if _, err := m.anyHandle(index); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.aliases[alias]; exists {
		return fmt.Errorf("%w: %q", ErrAliasExists, alias)
	}
	m.aliases[alias] = m.resolveLocked(index)
	return nil
}

// AliasUpdate runs FT.ALIASUPDATE alias index, reassigning alias even if
// it already pointed elsewhere.
func (m *Manager) AliasUpdate(alias, index string) error {
	if _, err := m.anyHandle(index); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[alias] = m.resolveLocked(index)
	return nil
}

// AliasDel runs FT.ALIASDEL alias.
func (m *Manager) AliasDel(alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.aliases[alias]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, alias)
	}
	delete(m.aliases, alias)
	return nil
}

func (m *Manager) resolveLocked(name string) string {
	if real, ok := m.aliases[name]; ok {
		return real
	}
	return name
}
