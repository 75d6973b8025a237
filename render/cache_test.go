package render

import (
	"image"
	"testing"
)

func img(w int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, 1))
}

func TestCachePutGet(t *testing.T) {
	c := newPageCache(3)

	if _, ok := c.get(0); ok {
		t.Fatal("empty cache should miss")
	}

	c.put(0, img(10))
	got, ok := c.get(0)
	if !ok || got.Bounds().Dx() != 10 {
		t.Fatalf("get(0) = %v, %v", got, ok)
	}

	// replacing a page keeps a single entry
	c.put(0, img(20))
	if c.len() != 1 {
		t.Errorf("len = %d, want 1", c.len())
	}
	if got, _ := c.get(0); got.Bounds().Dx() != 20 {
		t.Error("put should replace the cached image")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newPageCache(2)
	c.put(0, img(1))
	c.put(1, img(1))

	// touch page 0 so page 1 is the eviction candidate
	c.get(0)
	c.put(2, img(1))

	if _, ok := c.get(1); ok {
		t.Error("page 1 should have been evicted")
	}
	if _, ok := c.get(0); !ok {
		t.Error("page 0 should have survived")
	}
	if _, ok := c.get(2); !ok {
		t.Error("page 2 should be cached")
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := newPageCache(3)
	c.put(0, img(1))
	c.put(1, img(1))

	c.remove(0)
	if _, ok := c.get(0); ok {
		t.Error("removed page should miss")
	}
	c.remove(7) // absent page is a no-op

	c.clear()
	if c.len() != 0 {
		t.Errorf("len after clear = %d, want 0", c.len())
	}

	// cache keeps working after clear
	c.put(2, img(1))
	if _, ok := c.get(2); !ok {
		t.Error("cache should accept entries after clear")
	}
}
