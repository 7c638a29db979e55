// Package refmap maintains the natural-key → surrogate-id maps for the
// dimension tables (comunas, previsiones, especialidades) and for the
// reload-by-natural-key maps the entity phases stitch with.
package refmap

import (
	"strings"
)

// Map is a natural-key → surrogate-id mapping for one table. Lookups are
// case-insensitive unless the key is a code, where case is significant by
// domain convention.
type Map struct {
	ids           map[string]int64
	caseSensitive bool
}

func NewMap(caseSensitive bool) *Map {
	return &Map{ids: make(map[string]int64), caseSensitive: caseSensitive}
}

// FromPairs builds a Map from raw (key → id) rows as fetched from the store.
func FromPairs(pairs map[string]int64, caseSensitive bool) *Map {
	m := NewMap(caseSensitive)
	for k, id := range pairs {
		m.Put(k, id)
	}
	return m
}

func (m *Map) norm(key string) string {
	key = strings.TrimSpace(key)
	if m.caseSensitive {
		return key
	}
	return strings.ToLower(key)
}

func (m *Map) Put(key string, id int64) {
	m.ids[m.norm(key)] = id
}

// Lookup resolves a natural key to its surrogate id.
func (m *Map) Lookup(key string) (int64, bool) {
	id, ok := m.ids[m.norm(key)]
	return id, ok
}

func (m *Map) Len() int {
	return len(m.ids)
}
