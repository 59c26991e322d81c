// Package cache memoizes virtual keyword annotations per verse. Entries are
// keyed by a BLAKE3 hash of everything the result depends on, so a changed
// verse text or preset set can never hit a stale entry.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/zeebo/blake3"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

// Key is the hex BLAKE3 digest of one (verse, text, translation, presets) input.
type Key string

// KeyFor hashes the inputs of a virtual annotation computation. Presets are
// hashed in id order.
func KeyFor(ref annotation.VerseRef, text, translation string, presets []keyword.Preset) (Key, error) {
	sorted := append([]keyword.Preset(nil), presets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	pj, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("hash presets: %w", err)
	}

	h := blake3.New()
	for _, part := range [][]byte{[]byte(translation), []byte(ref.Key()), []byte(text), pj} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

// VirtualCache is a bounded LRU of virtual annotation lists.
type VirtualCache struct {
	lru    *lru.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding at most size verses.
func New(size int) (*VirtualCache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &VirtualCache{lru: l}, nil
}

// Get returns the cached annotations for k.
func (c *VirtualCache) Get(k Key) ([]annotation.Annotation, bool) {
	v, ok := c.lru.Get(k)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]annotation.Annotation), true
}

// Add stores annotations under k.
func (c *VirtualCache) Add(k Key, as []annotation.Annotation) {
	c.lru.Add(k, as)
}

// Virtual returns the virtual annotations for one verse, computing and
// storing them on a miss. The bool reports a hit.
func (c *VirtualCache) Virtual(ref annotation.VerseRef, text, translation string, presets []keyword.Preset) ([]annotation.Annotation, bool, error) {
	k, err := KeyFor(ref, text, translation, presets)
	if err != nil {
		return nil, false, err
	}
	if as, ok := c.Get(k); ok {
		return as, true, nil
	}
	as, err := keyword.RecomputeVirtualAnnotations(text, ref, presets)
	if err != nil {
		return nil, false, err
	}
	c.Add(k, as)
	return as, false, nil
}

// Purge drops every entry.
func (c *VirtualCache) Purge() {
	c.lru.Purge()
}

// Stats returns hit and miss counters and the current size.
func (c *VirtualCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.lru.Len()}
}
