// Package registry maps XML tag names to Go types and back.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/hengadev/xmlcodec/internal/codecerr"
	"github.com/tidwall/btree"
)

// Factory builds a fresh instance of a registered type. The returned
// value must have exactly the registered type.
type Factory func() reflect.Value

// Entry is one tag and type association.
type Entry struct {
	Tag  string
	Type reflect.Type
}

type entry struct {
	typ     reflect.Type
	factory Factory
}

// Registry is a bidirectional tag to type map. Each tag maps to one type
// and each type to one tag; registering either side again replaces the
// previous association.
type Registry struct {
	mu     sync.RWMutex
	byTag  btree.Map[string, entry]
	byType map[reflect.Type]string
}

func New() *Registry {
	return &Registry{byType: make(map[reflect.Type]string)}
}

// Register associates tag with t. Pointer types are registered as their
// element type. A nil factory falls back to the zero value of t.
func (r *Registry) Register(tag string, t reflect.Type, factory Factory) error {
	if tag == "" {
		return fmt.Errorf("%w: empty tag", codecerr.ErrInvalidMetadata)
	}
	if t == nil {
		return fmt.Errorf("%w: nil type for tag '%s'", codecerr.ErrInvalidMetadata, tag)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: tag '%s' must map to a struct type, got %s", codecerr.ErrUnsupportedType, tag, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byTag.Get(tag); ok && old.typ != t {
		delete(r.byType, old.typ)
	}
	if oldTag, ok := r.byType[t]; ok && oldTag != tag {
		r.byTag.Delete(oldTag)
	}
	r.byTag.Set(tag, entry{typ: t, factory: factory})
	r.byType[t] = tag
	return nil
}

// TypeOf resolves the type registered under tag.
func (r *Registry) TypeOf(tag string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byTag.Get(tag)
	return e.typ, ok
}

// TagOf resolves the tag registered for t.
func (r *Registry) TagOf(t reflect.Type) (string, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tag, ok := r.byType[t]
	return tag, ok
}

// New returns an addressable instance of t built with its registered
// factory, or the zero value when t has none.
func (r *Registry) New(t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	r.mu.RLock()
	tag, ok := r.byType[t]
	var e entry
	if ok {
		e, _ = r.byTag.Get(tag)
	}
	r.mu.RUnlock()
	if e.factory != nil {
		if v := e.factory(); v.IsValid() {
			out.Set(v)
		}
	}
	return out
}

// Entries returns every association ordered by tag.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, r.byTag.Len())
	r.byTag.Scan(func(tag string, e entry) bool {
		entries = append(entries, Entry{Tag: tag, Type: e.typ})
		return true
	})
	return entries
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byTag.Len()
}
