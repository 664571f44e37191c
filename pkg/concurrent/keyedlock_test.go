// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package concurrent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedTTLLock(t *testing.T) {
	t.Run("acquire free key succeeds", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)

		assert.True(t, lock.TryAcquire("meeting-1"))
	})

	t.Run("acquire held key fails", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)

		assert.True(t, lock.TryAcquire("meeting-1"))
		assert.False(t, lock.TryAcquire("meeting-1"))
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)

		assert.True(t, lock.TryAcquire("meeting-1"))
		assert.True(t, lock.TryAcquire("meeting-2"))
	})

	t.Run("release frees the key", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)

		assert.True(t, lock.TryAcquire("meeting-1"))
		lock.Release("meeting-1")
		assert.True(t, lock.TryAcquire("meeting-1"))
	})

	t.Run("release of unheld key is a no-op", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)

		lock.Release("meeting-1")
		assert.True(t, lock.TryAcquire("meeting-1"))
	})

	t.Run("expired acquisition can be retaken", func(t *testing.T) {
		lock := NewKeyedTTLLock(15 * time.Second)
		current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		lock.now = func() time.Time { return current }

		assert.True(t, lock.TryAcquire("meeting-1"))

		current = current.Add(14 * time.Second)
		assert.False(t, lock.TryAcquire("meeting-1"))

		current = current.Add(2 * time.Second)
		assert.True(t, lock.TryAcquire("meeting-1"))
	})
}
