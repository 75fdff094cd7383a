package imaging

import "image"

// Cache is a bounded FIFO thumbnail cache keyed by image content hash.
// It is owned by the session that creates it; there is no process-global
// cache state.
type Cache struct {
	max   int
	order []string
	items map[string]image.Image
}

// NewCache returns a cache holding at most max thumbnails. A max of zero
// or less disables caching.
func NewCache(max int) *Cache {
	return &Cache{
		max:   max,
		items: make(map[string]image.Image),
	}
}

func (c *Cache) Get(hash string) (image.Image, bool) {
	img, ok := c.items[hash]
	return img, ok
}

func (c *Cache) Put(hash string, img image.Image) {
	if c.max <= 0 {
		return
	}
	if _, ok := c.items[hash]; ok {
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[hash] = img
	c.order = append(c.order, hash)
}

func (c *Cache) Len() int {
	return len(c.items)
}
