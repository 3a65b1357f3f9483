// Package mdc is a mapped diagnostic context: string key/values kept per goroutine.
//
// Each goroutine sees only its own values. A goroutine should call Clear
// before it exits, else its values stay in memory.
package mdc

import (
	"sync"

	"github.com/petermattis/goid"
)

type context struct {
	mu sync.Mutex
	m  map[string]string
}

// contexts maps a goroutine id to its *context.
var contexts sync.Map

func current(create bool) *context {
	id := goid.Get()
	if v, ok := contexts.Load(id); ok {
		return v.(*context)
	}
	if !create {
		return nil
	}
	c := &context{m: make(map[string]string)}
	contexts.Store(id, c)
	return c
}

// Put sets key to value for the calling goroutine.
func Put(key, value string) {
	c := current(true)
	c.mu.Lock()
	c.m[key] = value
	c.mu.Unlock()
}

// Get returns the value of key for the calling goroutine.
func Get(key string) (value string, ok bool) {
	if c := current(false); c != nil {
		c.mu.Lock()
		value, ok = c.m[key]
		c.mu.Unlock()
	}
	return
}

// Remove deletes key for the calling goroutine.
func Remove(key string) {
	if c := current(false); c != nil {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
	}
}

// Clear deletes every key of the calling goroutine.
func Clear() {
	contexts.Delete(goid.Get())
}

// Copy returns a snapshot of the calling goroutine's values.
func Copy() map[string]string {
	c := current(false)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]string, len(c.m))
	for k, v := range c.m {
		m[k] = v
	}
	return m
}
