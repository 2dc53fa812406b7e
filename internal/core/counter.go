package core

import "sort"

// Counter tallies keys and remembers the order in which each key was
// first seen, so ranking ties resolve by first appearance.
type Counter[K comparable] struct {
	index   map[K]int
	entries []CountEntry[K]
}

// CountEntry is one key with its tally.
type CountEntry[K comparable] struct {
	Key   K
	Count int
}

func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{index: make(map[K]int)}
}

// Add increments the tally for key.
func (c *Counter[K]) Add(key K) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Count++
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, CountEntry[K]{Key: key, Count: 1})
}

// Count returns the tally for key, zero when never added.
func (c *Counter[K]) Count(key K) int {
	if i, ok := c.index[key]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Len returns the number of distinct keys.
func (c *Counter[K]) Len() int {
	return len(c.entries)
}

// Top returns up to n entries by descending count. Equal counts keep
// first-seen order. A negative n returns every entry.
func (c *Counter[K]) Top(n int) []CountEntry[K] {
	out := make([]CountEntry[K], len(c.entries))
	copy(out, c.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
