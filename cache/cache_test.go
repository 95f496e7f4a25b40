package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey_Normalises(t *testing.T) {
	assert.Equal(t, Key("https://example.com/about"), Key("HTTPS://Example.COM/about/"))
	assert.Equal(t, Key("https://example.com"), Key(" https://example.com/ "))
	assert.NotEqual(t, Key("https://example.com/About"), Key("https://example.com/about"))
}

func TestCache_GetSet(t *testing.T) {
	c := New[string](10, time.Hour)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_Capacity(t *testing.T) {
	c := New[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	// Overwriting an existing key never evicts.
	c.Set("c", 4)
	assert.Equal(t, 2, c.Len())
}
