package noteforge

import "sync"

// templateCache holds raw template loads and inheritance-resolved sources.
// Entries are append-only for the life of the process: reads are lock-free
// once an entry exists, writes use atomic check-then-insert, and the only
// way entries leave is an explicit Clear.
type templateCache struct {
	raw      sync.Map // name -> string source
	resolved sync.Map // name -> string resolved source
}

func newTemplateCache() *templateCache {
	return &templateCache{}
}

// GetRaw returns a cached raw load.
func (c *templateCache) GetRaw(name string) (string, bool) {
	v, ok := c.raw.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// SetRaw stores a raw load, keeping an existing entry if one raced in
// first so all readers observe one canonical value.
func (c *templateCache) SetRaw(name, source string) string {
	actual, _ := c.raw.LoadOrStore(name, source)
	return actual.(string)
}

// GetResolved returns a cached inheritance-resolved source.
func (c *templateCache) GetResolved(name string) (string, bool) {
	v, ok := c.resolved.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// SetResolved stores a resolved source under single-writer-per-key
// semantics.
func (c *templateCache) SetResolved(name, source string) string {
	actual, _ := c.resolved.LoadOrStore(name, source)
	return actual.(string)
}

// Clear drops every entry. Resolved entries can depend on parents loaded
// under other names, so invalidation is all-or-nothing.
func (c *templateCache) Clear() {
	c.raw.Range(func(key, _ interface{}) bool {
		c.raw.Delete(key)
		return true
	})
	c.resolved.Range(func(key, _ interface{}) bool {
		c.resolved.Delete(key)
		return true
	})
}

// Size returns the number of raw entries, for tests and diagnostics.
func (c *templateCache) Size() int {
	count := 0
	c.raw.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
