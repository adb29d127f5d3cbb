package store

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// Collection is an in-memory document collection backed by one JSON array
// file. It is loaded once, mutated in memory and written back by Flush, so
// a fold over n records costs one file write instead of n.
type Collection[T any] struct {
	path   string
	key    func(T) string
	items  []T
	index  map[string]int
	dirty  bool
	logger *zerolog.Logger
}

// OpenCollection loads the collection at path. Unreadable content yields an
// empty collection and elements that do not decode as T are dropped. When
// key is non-nil the collection is indexed by it and Put replaces by key.
func OpenCollection[T any](s *Store, path string, key func(T) string) *Collection[T] {
	c := &Collection[T]{
		path:   path,
		key:    key,
		index:  make(map[string]int),
		logger: logging.OrNop(s.logger),
	}
	for i, raw := range s.LoadArray(path) {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Int("index", i).Msg("Dropping undecodable collection entry")
			continue
		}
		c.insert(item)
	}
	return c
}

// Path returns the backing file.
func (c *Collection[T]) Path() string {
	return c.path
}

func (c *Collection[T]) insert(item T) {
	if c.key != nil {
		k := c.key(item)
		if i, ok := c.index[k]; ok {
			c.items[i] = item
			return
		}
		c.index[k] = len(c.items)
	}
	c.items = append(c.items, item)
}

// Get returns the entry stored under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	i, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Upsert applies mutate to the entry under key, creating it with create
// first when absent. It reports whether the entry was created.
func (c *Collection[T]) Upsert(key string, create func() T, mutate func(*T)) bool {
	i, ok := c.index[key]
	if !ok {
		i = len(c.items)
		c.items = append(c.items, create())
		c.index[key] = i
	}
	if mutate != nil {
		mutate(&c.items[i])
	}
	c.dirty = true
	return !ok
}

// Put inserts item, replacing an entry with the same key when keyed.
func (c *Collection[T]) Put(item T) {
	c.insert(item)
	c.dirty = true
}

// Append adds item without consulting the index.
func (c *Collection[T]) Append(item T) {
	c.items = append(c.items, item)
	c.dirty = true
}

// Len returns the number of entries.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Items returns the entries in insertion order.
func (c *Collection[T]) Items() []T {
	return c.items
}

// Flush writes the collection when it changed since loading.
func (c *Collection[T]) Flush() error {
	if !c.dirty {
		return nil
	}
	items := c.items
	if items == nil {
		items = []T{}
	}
	if err := WriteJSON(c.path, items); err != nil {
		return err
	}
	c.dirty = false
	c.logger.Debug().Str("path", c.path).Int("entries", len(items)).Msg("Flushed collection")
	return nil
}
