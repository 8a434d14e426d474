package checkcache

import (
	"testing"
	"time"

	"github.com/fiffu/stockwatch/lib/models"
	"github.com/stretchr/testify/assert"
)

func TestLookupHitAndMiss(t *testing.T) {
	c := New(10 * time.Second)
	key := Key{Locator: "https://example.com/product/1/widget", StoreID: "131"}

	_, ok := c.Lookup(key)
	assert.False(t, ok)

	c.Store(key, models.InStock("Widget"), time.Now().UTC())

	det, ok := c.Lookup(key)
	assert.True(t, ok)
	assert.True(t, det.IsInStock())
	assert.Equal(t, "Widget", det.Title)
}

func TestLookupNeverCollidesAcrossKeys(t *testing.T) {
	c := New(10 * time.Second)
	now := time.Now().UTC()

	// Same locator at two stores, and two locators at one store, all distinct.
	c.Store(Key{Locator: "L1", StoreID: "131"}, models.InStock("A"), now)
	c.Store(Key{Locator: "L1", StoreID: "065"}, models.OutOfStock("B"), now)
	c.Store(Key{Locator: "L2", StoreID: "131"}, models.Inconclusive("x"), now)

	det, ok := c.Lookup(Key{Locator: "L1", StoreID: "131"})
	assert.True(t, ok)
	assert.True(t, det.IsInStock())

	det, ok = c.Lookup(Key{Locator: "L1", StoreID: "065"})
	assert.True(t, ok)
	assert.False(t, det.IsInStock())
	assert.True(t, det.Conclusive())

	det, ok = c.Lookup(Key{Locator: "L2", StoreID: "131"})
	assert.True(t, ok)
	assert.False(t, det.Conclusive())
}

func TestLookupChecksAgeIndependentlyOfEviction(t *testing.T) {
	c := New(10 * time.Second)
	key := Key{Locator: "L1", StoreID: "131"}

	c.Store(key, models.InStock("Widget"), time.Now().UTC().Add(-11*time.Second))

	// No eviction pass has run, but the entry is older than the TTL.
	_, ok := c.Lookup(key)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestEvictExpired(t *testing.T) {
	c := New(10 * time.Second)
	now := time.Now().UTC()

	c.Store(Key{Locator: "fresh", StoreID: "131"}, models.InStock(""), now)
	c.Store(Key{Locator: "stale", StoreID: "131"}, models.InStock(""), now.Add(-time.Minute))
	c.Store(Key{Locator: "staler", StoreID: "131"}, models.InStock(""), now.Add(-time.Hour))

	assert.Equal(t, 2, c.EvictExpired(now))
	assert.Equal(t, 1, c.Len())

	_, ok := c.Lookup(Key{Locator: "fresh", StoreID: "131"})
	assert.True(t, ok)
}
