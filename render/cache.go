package render

import "image"

// pageCache is a small LRU cache of rendered page images keyed by page
// index.
type pageCache struct {
	capacity    int
	entries     map[int]*cacheEntry
	first, last *cacheEntry
}

type cacheEntry struct {
	prev, next *cacheEntry
	page       int
	img        image.Image
}

func newPageCache(capacity int) *pageCache {
	return &pageCache{
		capacity: capacity,
		entries:  make(map[int]*cacheEntry, capacity),
	}
}

// get returns the cached image and marks it as recently used.
func (c *pageCache) get(page int) (image.Image, bool) {
	ent, ok := c.entries[page]
	if !ok {
		return nil, false
	}
	c.moveToFront(ent)
	return ent.img, true
}

// put adds an image, evicting the least recently used entry when full.
func (c *pageCache) put(page int, img image.Image) {
	if c.capacity <= 0 {
		return
	}

	if ent, ok := c.entries[page]; ok {
		ent.img = img
		c.moveToFront(ent)
		return
	}

	ent := &cacheEntry{page: page, img: img}
	c.entries[page] = ent
	c.moveToFront(ent)

	if len(c.entries) > c.capacity {
		c.removeLast()
	}
}

func (c *pageCache) remove(page int) {
	ent, ok := c.entries[page]
	if !ok {
		return
	}
	delete(c.entries, page)
	c.unlink(ent)
}

func (c *pageCache) clear() {
	c.entries = make(map[int]*cacheEntry, c.capacity)
	c.first = nil
	c.last = nil
}

func (c *pageCache) len() int { return len(c.entries) }

func (c *pageCache) moveToFront(ent *cacheEntry) {
	if ent == c.first {
		return
	}
	c.unlink(ent)
	ent.next = c.first
	if c.first != nil {
		c.first.prev = ent
	}
	c.first = ent
	if c.last == nil {
		c.last = ent
	}
}

func (c *pageCache) removeLast() {
	if c.last == nil {
		return
	}
	delete(c.entries, c.last.page)
	c.unlink(c.last)
}

func (c *pageCache) unlink(ent *cacheEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == c.first {
		c.first = ent.next
	}
	if ent == c.last {
		c.last = ent.prev
	}
	ent.prev = nil
	ent.next = nil
}
