package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Basic(t *testing.T) {
	c := New(Options[string, string]{MaxSize: 3})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value_a", val)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestLRU_Eviction(t *testing.T) {
	c := New(Options[string, int]{MaxSize: 3})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, "%s should still be present", k)
	}
}

func TestLRU_UpdateMovesToFront(t *testing.T) {
	c := New(Options[string, int]{MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 10, v)
	_, found = c.Get("b")
	assert.False(t, found)
}

func TestLRU_Delete(t *testing.T) {
	var evicted []string
	c := New(Options[string, int]{
		MaxSize: 10,
		OnEvict: func(k string, _ int) { evicted = append(evicted, k) },
	})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Delete("b")
	c.Delete("missing")

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	// The list stays linked after removing a middle entry.
	c.Set("d", 4)
	c.Set("e", 5)
	assert.Equal(t, 4, c.Len())
}

func TestLRU_MaxBytes(t *testing.T) {
	var evicted []string
	c := New(Options[string, []string]{
		MaxBytes: 10,
		SizeOf: func(_ string, v []string) int {
			n := 0
			for _, s := range v {
				n += len(s)
			}
			return n
		},
		OnEvict: func(k string, _ []string) { evicted = append(evicted, k) },
	})

	c.Set("a", []string{"1234"})
	c.Set("b", []string{"12", "34"})
	assert.Equal(t, int64(8), c.CurrentBytes())

	c.Set("c", []string{"1234"})
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, int64(8), c.CurrentBytes())

	// An entry larger than the limit is still kept on its own.
	c.Set("big", []string{"0123456789abc"})
	assert.Equal(t, 1, c.Len())
	_, found := c.Get("big")
	assert.True(t, found)
}

func TestLRU_Clear(t *testing.T) {
	c := New(Options[int, int]{})
	for i := 0; i < 100; i++ {
		c.Set(i, i*i)
	}
	assert.Equal(t, 100, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.CurrentBytes())

	c.Set(1, 1)
	v, found := c.Get(1)
	require.True(t, found)
	assert.Equal(t, 1, v)
}
