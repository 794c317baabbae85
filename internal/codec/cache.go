package codec

import (
	"reflect"
	"sync"
)

// Builder constructs the serializer for a struct type.
type Builder func(t reflect.Type) (*Object, error)

// Cache memoizes one Object per type. Lookup and insertion happen under a
// single lock, so a type is built at most once however many goroutines
// ask for it.
type Cache struct {
	mu      sync.Mutex
	entries map[reflect.Type]*Object
	build   Builder
}

// NewCache returns a cache that builds missing entries with build, or
// with NewObject when build is nil.
func NewCache(build Builder) *Cache {
	if build == nil {
		build = NewObject
	}
	return &Cache{entries: make(map[reflect.Type]*Object), build: build}
}

// Get returns the serializer for t, building it on first use. Failed
// builds are not cached.
func (c *Cache) Get(t reflect.Type) (*Object, error) {
	t = indirect(t)

	c.mu.Lock()
	defer c.mu.Unlock()

	if obj, ok := c.entries[t]; ok {
		return obj, nil
	}
	obj, err := c.build(t)
	if err != nil {
		return nil, err
	}
	c.entries[t] = obj
	return obj, nil
}

// Len returns the number of cached serializers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
