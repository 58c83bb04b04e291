// Package cache stores materialized lookup snapshots so repeated runs do not
// reload the authority/agency reference table from its source.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"
)

// Cache defines the interface for snapshot caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "crosscheck:v1:" + namespace + ":" + hex.EncodeToString(hash[:16])
}

// Stats counts cache hits and misses
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Hits returns the number of cache hits
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses returns the number of cache misses
func (s *Stats) Misses() int64 { return s.misses.Load() }

func (s *Stats) record(found bool) {
	if found {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

// Nop is a cache that stores nothing, used when caching is disabled
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error { return nil }
func (Nop) Clear() error { return nil }
