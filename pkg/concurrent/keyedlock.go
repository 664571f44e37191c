// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package concurrent

import (
	"sync"
	"time"
)

// KeyedTTLLock provides per-key mutual exclusion with automatic expiry.
// A held key is released either explicitly or when its TTL elapses, so a
// crashed holder cannot block the key forever.
type KeyedTTLLock struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewKeyedTTLLock creates a KeyedTTLLock whose acquisitions expire after ttl.
func NewKeyedTTLLock(ttl time.Duration) *KeyedTTLLock {
	return &KeyedTTLLock{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TryAcquire attempts to take the lock for key. It returns true when the key
// was free or a previous acquisition has expired, false when the key is held.
func (l *KeyedTTLLock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, held := l.entries[key]; held && now.Before(expiry) {
		return false
	}
	l.entries[key] = now.Add(l.ttl)
	return true
}

// Release frees the lock for key. Releasing an unheld key is a no-op.
func (l *KeyedTTLLock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
