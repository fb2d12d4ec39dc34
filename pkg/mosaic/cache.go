package mosaic

import (
	"errors"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/mosaic/internal/scope"
	"github.com/mesh-intelligence/mosaic/pkg/types"
)

// errWaitCycle reports a load that would wait, through other goroutines'
// loads, on a load its own goroutine is running.
var errWaitCycle = errors.New("shared load waits on itself")

// Cache maps (component type, entry name) to the shared instance decoded for
// it and the checksum of the bytes it was decoded from. At most one instance
// exists per key; loads of one key are serialized so concurrent readers
// never decode divergent instances for the same name.
//
// A load that would wait on another goroutine's load which in turn waits,
// directly or through further goroutines, on the caller fails with
// ErrLinkCycle instead of blocking. That only happens when shared links form
// a cycle.
//
// Entries live until removed. The zero Cache is not usable; call NewCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	flight  singleflight.Group

	waitMu  sync.Mutex
	loading map[string]uint64 // Flight key -> goroutine running its load.
	waiting map[uint64]string // Goroutine -> flight key it is entering.
}

type cacheKey struct {
	typ  reflect.Type
	name string
}

// flightKey is the singleflight key for k. Types are identified by package
// path and name so equally named types of different packages stay apart.
func (k cacheKey) flightKey() string {
	return k.typ.PkgPath() + "." + k.typ.String() + "\x00" + k.name
}

type cacheEntry struct {
	instance any // *T for the key's type T.
	sum      uint32
	hasSum   bool // False for instances put in by Insert; they are always trusted.
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]cacheEntry),
		loading: make(map[string]uint64),
		waiting: make(map[uint64]string),
	}
}

// Len returns the number of cached instances.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every cached instance. Instances already handed out are not
// affected.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Insert caches v as the shared instance for its type and EntryName, with no
// recorded checksum. Such an instance is returned for every link to that
// name whatever checksum the link carries, until it is removed.
func Insert[T types.Entry](c *Cache, v *T) {
	key := cacheKey{typ: reflect.TypeFor[T](), name: (*v).EntryName()}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{instance: v}
}

// Lookup returns the cached instance of T named name.
func Lookup[T types.Entry](c *Cache, name string) (*T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey{typ: reflect.TypeFor[T](), name: name}]
	if !ok {
		return nil, false
	}
	return e.instance.(*T), true
}

// Evict removes the cached instance of T named name and reports whether one
// was present.
func Evict[T types.Entry](c *Cache, name string) bool {
	key := cacheKey{typ: reflect.TypeFor[T](), name: name}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// fresh returns the cached instance for key unless want names a checksum
// that differs from the one recorded for it.
func (c *Cache) fresh(key cacheKey, want *uint32) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if want != nil && e.hasSum && *want != e.sum {
		return nil, false
	}
	return e.instance, true
}

// resolve returns the instance for key, calling load on a miss or when the
// cached instance is stale against want. loaded reports whether this call
// ran load.
func (c *Cache) resolve(key cacheKey, want *uint32, load func() (any, uint32, error)) (v any, loaded bool, err error) {
	if v, ok := c.fresh(key, want); ok {
		return v, false, nil
	}

	fk := key.flightKey()
	g := scope.GoroutineID()
	if err := c.await(fk, g); err != nil {
		return nil, false, err
	}
	defer c.unwait(g)

	v, err, _ = c.flight.Do(fk, func() (any, error) {
		c.lead(fk, g)
		defer c.release(fk)

		if v, ok := c.fresh(key, want); ok {
			return v, nil
		}
		v, sum, err := load()
		if err != nil {
			return nil, err
		}
		loaded = true
		c.mu.Lock()
		c.entries[key] = cacheEntry{instance: v, sum: sum, hasSum: true}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, loaded, nil
}

// await records that goroutine g is about to enter the flight fk. It fails
// with errWaitCycle when the goroutine running fk is, through the chain of
// flights being waited on, waiting on g.
func (c *Cache) await(fk string, g uint64) error {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()

	next := fk
	for range len(c.waiting) + 1 {
		owner, ok := c.loading[next]
		if !ok {
			break
		}
		if owner == g {
			return errWaitCycle
		}
		if next, ok = c.waiting[owner]; !ok {
			break
		}
	}
	c.waiting[g] = fk
	return nil
}

// lead records g as the goroutine running the load of fk.
func (c *Cache) lead(fk string, g uint64) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	c.loading[fk] = g
	delete(c.waiting, g)
}

func (c *Cache) release(fk string) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	delete(c.loading, fk)
}

func (c *Cache) unwait(g uint64) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	delete(c.waiting, g)
}
