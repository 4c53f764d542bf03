// Package mapx provides generic map and slice helpers, including an
// insertion-ordered additive counter.
package mapx

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Numeric is the constraint for types that support the += operator.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Counter accumulates values per key and remembers the order in which keys
// were first added. The zero value is ready to use. Counter is not safe for
// concurrent mutation.
type Counter[K comparable, V Numeric] struct {
	keys   []K
	values map[K]V
}

// counterEntry is the JSON form of a single Counter key.
type counterEntry[K comparable, V Numeric] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Add sums v into the value stored for k. A key seen for the first time is
// appended to the iteration order.
func (c *Counter[K, V]) Add(k K, v V) {
	if c.values == nil {
		c.values = make(map[K]V)
	}

	if _, ok := c.values[k]; !ok {
		c.keys = append(c.keys, k)
	}

	c.values[k] += v
}

// Get returns the accumulated value for k and whether k was ever added.
func (c *Counter[K, V]) Get(k K) (V, bool) {
	v, ok := c.values[k]

	return v, ok
}

// Len returns the number of distinct keys.
func (c *Counter[K, V]) Len() int {
	return len(c.keys)
}

// Keys returns a copy of the keys in first-insertion order.
func (c *Counter[K, V]) Keys() []K {
	return slices.Clone(c.keys)
}

// All iterates keys and values in first-insertion order.
func (c *Counter[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range c.keys {
			if !yield(k, c.values[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the counter as an ordered array of key/value pairs.
func (c Counter[K, V]) MarshalJSON() ([]byte, error) {
	entries := make([]counterEntry[K, V], 0, len(c.keys))

	for _, k := range c.keys {
		entries = append(entries, counterEntry[K, V]{Key: k, Value: c.values[k]})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal counter: %w", err)
	}

	return data, nil
}

// UnmarshalJSON restores a counter from its ordered array form. Duplicate keys
// are summed, matching Add.
func (c *Counter[K, V]) UnmarshalJSON(data []byte) error {
	var entries []counterEntry[K, V]

	err := json.Unmarshal(data, &entries)
	if err != nil {
		return fmt.Errorf("unmarshal counter: %w", err)
	}

	c.keys = nil
	c.values = nil

	for _, e := range entries {
		c.Add(e.Key, e.Value)
	}

	return nil
}
