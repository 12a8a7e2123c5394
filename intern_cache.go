package serious

import (
	"sync"
	"sync/atomic"
)

// InternCache provides thread-safe interning of values by key. The factory
// for a key runs at most once, even under concurrent access, and every
// caller observes the same value afterwards.
type InternCache[K comparable, V any] struct {
	cache sync.Map // map[K]*internEntry[V]
}

type internEntry[V any] struct {
	once  sync.Once
	ready atomic.Bool
	value V
}

// NewInternCache creates a new thread-safe intern cache
func NewInternCache[K comparable, V any]() *InternCache[K, V] {
	return &InternCache[K, V]{}
}

// GetOrCreate returns the value interned under key, creating it with factory
// if it doesn't exist.
func (c *InternCache[K, V]) GetOrCreate(key K, factory func() V) V {
	v, ok := c.cache.Load(key)
	if !ok {
		v, _ = c.cache.LoadOrStore(key, &internEntry[V]{})
	}
	entry := v.(*internEntry[V])
	entry.once.Do(func() {
		entry.value = factory()
		entry.ready.Store(true)
	})
	return entry.value
}

// Get retrieves the value interned under key if it exists and its factory
// has completed.
func (c *InternCache[K, V]) Get(key K) (V, bool) {
	if v, ok := c.cache.Load(key); ok {
		if entry := v.(*internEntry[V]); entry.ready.Load() {
			return entry.value, true
		}
	}
	var zero V
	return zero, false
}

// Len counts the interned keys.
func (c *InternCache[K, V]) Len() int {
	n := 0
	c.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
