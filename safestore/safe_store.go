/*
Package safestore provides T, a string-keyed store which remembers the order
in which keys were first inserted.

It backs the pattern and category tables. Those tables rely on
insert-if-absent semantics: the first declaration of a duplicate name wins,
so T has no upsert. Replacing a value is done with Remove then PutIfAbsent.

A T can be lock enabled or not. If a T is only mutated before it is shared
(as the registry tables are), create a lock-less T and treat it as read-only
afterwards.
*/
package safestore

import "sync"

type T[V any] struct {
	container map[string]V
	keys      []string
	lock      sync.RWMutex
	useLock   bool
}

func New[V any](useLock bool) *T[V] {
	return &T[V]{
		container: make(map[string]V),
		useLock:   useLock,
	}
}

// PutIfAbsent stores val under key if key is not present.
// It returns false (and leaves the store unchanged) if key already exists.
func (rq *T[V]) PutIfAbsent(key string, val V) (added bool) {
	if rq.useLock {
		rq.lock.Lock()
		defer rq.lock.Unlock()
	}
	if _, ok := rq.container[key]; ok {
		return false
	}
	rq.container[key] = val
	rq.keys = append(rq.keys, key)
	return true
}

func (rq *T[V]) Get(key string) (v V, ok bool) {
	if rq.useLock {
		rq.lock.RLock()
		defer rq.lock.RUnlock()
	}
	v, ok = rq.container[key]
	return
}

func (rq *T[V]) Contains(key string) bool {
	_, ok := rq.Get(key)
	return ok
}

// Remove deletes key, returning the value it held.
func (rq *T[V]) Remove(key string) (v V, ok bool) {
	if rq.useLock {
		rq.lock.Lock()
		defer rq.lock.Unlock()
	}
	if v, ok = rq.container[key]; !ok {
		return
	}
	delete(rq.container, key)
	for i := range rq.keys {
		if rq.keys[i] == key {
			rq.keys = append(rq.keys[:i], rq.keys[i+1:]...)
			break
		}
	}
	return
}

func (rq *T[V]) Len() int {
	if rq.useLock {
		rq.lock.RLock()
		defer rq.lock.RUnlock()
	}
	return len(rq.container)
}

// Keys returns the keys in insertion order.
func (rq *T[V]) Keys() []string {
	if rq.useLock {
		rq.lock.RLock()
		defer rq.lock.RUnlock()
	}
	return append([]string(nil), rq.keys...)
}

// Range calls fn for each entry in insertion order, until fn returns false.
// fn must not mutate rq.
func (rq *T[V]) Range(fn func(key string, val V) bool) {
	if rq.useLock {
		rq.lock.RLock()
		defer rq.lock.RUnlock()
	}
	for _, k := range rq.keys {
		if !fn(k, rq.container[k]) {
			return
		}
	}
}

// Clear removes every entry, calling fn (if non-nil) on each in insertion order first.
func (rq *T[V]) Clear(fn func(key string, val V)) {
	if rq.useLock {
		rq.lock.Lock()
		defer rq.lock.Unlock()
	}
	if fn != nil {
		for _, k := range rq.keys {
			fn(k, rq.container[k])
		}
	}
	rq.container = make(map[string]V)
	rq.keys = nil
}
