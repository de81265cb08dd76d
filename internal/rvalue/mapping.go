package rvalue

// Mapping is an insertion-ordered string-keyed map, grounded on
// original_source/src/types/mapping.rs (an IndexMap wrapper there; a
// parallel keys slice plus a lookup map here, since Go's map has no
// ordering).
type Mapping struct {
	keys []string
	vals map[string]*Value
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]*Value)}
}

// Keys returns the mapping's keys in insertion order. The returned slice
// must not be mutated by the caller.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value at key and whether it is present.
func (m *Mapping) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set inserts or replaces the value at key, appending key to the
// insertion order if it is new.
func (m *Mapping) Set(key string, v *Value) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	if _, exists := m.vals[key]; !exists {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	c := NewMapping()
	c.keys = append([]string(nil), m.keys...)
	for k, v := range m.vals {
		c.vals[k] = v.Clone()
	}
	return c
}

// Equal reports whether m and o have the same keys (in the same order)
// mapped to structurally equal values.
func (m *Mapping) Equal(o *Mapping) bool {
	if m == nil || o == nil {
		return m == nil && o == nil || (m.Len() == 0 && o.Len() == 0)
	}
	if len(m.keys) != len(o.keys) {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k {
			return false
		}
		if !Equal(m.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

// Wrap builds a Mapping-kind Value from m.
func Wrap(m *Mapping) *Value {
	return &Value{Kind: KindMapping, Map: m}
}
