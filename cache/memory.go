// Package cache provides an in-process implementation of dynrepo.Cache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/syssam/dynrepo"
)

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// Memory is a dynrepo.Cache backed by a map. Expired entries are dropped
// when read and by Sweep. Memory is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

// Get returns the value of key, or nil if the key is missing or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if m.expired(e) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && m.expired(cur) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value under key. A ttl of 0 never expires.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Clear removes every key.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

var _ dynrepo.Cache = (*Memory)(nil)
