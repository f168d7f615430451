package evaluator

import "container/list"

// BoundedMap is a string-keyed map capped at a fixed size. When full, the
// least-recently-SET entry is evicted. Setting an existing key refreshes its
// recency; reads do not. This keeps long-quiet fingerprints evictable even
// when they are checked on every event.
type BoundedMap struct {
	max   int
	order *list.List // front = least recently set
	index map[string]*list.Element
}

type boundedEntry struct {
	key   string
	value float64
}

// NewBoundedMap creates a BoundedMap holding at most max entries.
func NewBoundedMap(max int) *BoundedMap {
	if max < 1 {
		max = 1
	}
	return &BoundedMap{
		max:   max,
		order: list.New(),
		index: make(map[string]*list.Element, max),
	}
}

// Set stores the value and marks the key most-recently-set, evicting the
// oldest entry if the map is full.
func (m *BoundedMap) Set(key string, value float64) {
	if el, ok := m.index[key]; ok {
		el.Value.(*boundedEntry).value = value
		m.order.MoveToBack(el)
		return
	}
	if m.order.Len() >= m.max {
		oldest := m.order.Front()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.index, oldest.Value.(*boundedEntry).key)
		}
	}
	m.index[key] = m.order.PushBack(&boundedEntry{key: key, value: value})
}

// Get returns the value for key. Lookups never affect eviction order.
func (m *BoundedMap) Get(key string) (float64, bool) {
	el, ok := m.index[key]
	if !ok {
		return 0, false
	}
	return el.Value.(*boundedEntry).value, true
}

// Len returns the number of entries stored.
func (m *BoundedMap) Len() int {
	return m.order.Len()
}

// Items returns a copy of the map contents.
func (m *BoundedMap) Items() map[string]float64 {
	out := make(map[string]float64, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*boundedEntry)
		out[e.key] = e.value
	}
	return out
}
