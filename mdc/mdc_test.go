package mdc

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutGetRemove(t *testing.T) {
	defer Clear()
	_, ok := Get("user")
	assert.False(t, ok)

	Put("user", "alice")
	Put("req", "42")
	v, ok := Get("user")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	Put("user", "bob")
	v, _ = Get("user")
	assert.Equal(t, "bob", v)

	Remove("user")
	_, ok = Get("user")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"req": "42"}, Copy())

	Clear()
	_, ok = Get("req")
	assert.False(t, ok)
	assert.Nil(t, Copy())
	// no-ops on an empty context
	Remove("req")
	Clear()
}

func TestPerGoroutine(t *testing.T) {
	defer Clear()
	Put("who", "main")

	var wg sync.WaitGroup
	got := make([]string, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer Clear()
			if _, ok := Get("who"); ok {
				got[i] = "leaked"
				return
			}
			Put("who", strconv.Itoa(i))
			got[i], _ = Get("who")
		}(i)
	}
	wg.Wait()
	for i, s := range got {
		assert.Equal(t, strconv.Itoa(i), s)
	}
	v, _ := Get("who")
	assert.Equal(t, "main", v)
}
