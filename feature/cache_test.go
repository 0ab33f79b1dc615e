package feature

import (
	"sync"
	"testing"
	"time"
)

func cachedVec(id string, at time.Time) *Vector {
	return &Vector{DrinkID: id, UpdatedAt: at, Numeric: map[string]float64{DimSweetness: 0.5}}
}

func TestVectorCache_GetPut(t *testing.T) {
	c := NewVectorCache(0)
	at := time.Unix(1700000000, 0)

	if _, ok := c.Get("d1", at); ok {
		t.Fatalf("Get() on empty cache returned a hit")
	}

	c.Put(cachedVec("d1", at))
	v, ok := c.Get("d1", at)
	if !ok {
		t.Fatalf("Get() after Put() missed")
	}
	if v.DrinkID != "d1" {
		t.Errorf("cached DrinkID = %q, want d1", v.DrinkID)
	}
}

func TestVectorCache_StaleStamp(t *testing.T) {
	c := NewVectorCache(0)
	at := time.Unix(1700000000, 0)
	c.Put(cachedVec("d1", at))

	// A drink updated after the cached vector was computed must miss.
	if _, ok := c.Get("d1", at.Add(time.Minute)); ok {
		t.Errorf("Get() with newer timestamp returned a stale vector")
	}
	// The fresh entry remains valid for the original stamp.
	if _, ok := c.Get("d1", at); !ok {
		t.Errorf("Get() with matching timestamp missed")
	}
}

func TestVectorCache_IdempotentPut(t *testing.T) {
	c := NewVectorCache(0)
	at := time.Unix(1700000000, 0)

	c.Put(cachedVec("d1", at))
	first, _ := c.Get("d1", at)
	c.Put(cachedVec("d1", at))
	second, _ := c.Get("d1", at)

	if first != second {
		t.Errorf("same-key same-stamp Put replaced the entry")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestVectorCache_ReplaceOnNewStamp(t *testing.T) {
	c := NewVectorCache(0)
	at := time.Unix(1700000000, 0)
	later := at.Add(time.Hour)

	c.Put(cachedVec("d1", at))
	c.Put(cachedVec("d1", later))

	if _, ok := c.Get("d1", at); ok {
		t.Errorf("old stamp still served after recompute")
	}
	if _, ok := c.Get("d1", later); !ok {
		t.Errorf("new stamp not served after recompute")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestVectorCache_MaxSize(t *testing.T) {
	c := NewVectorCache(2)
	at := time.Unix(1700000000, 0)

	c.Put(cachedVec("d1", at))
	c.Put(cachedVec("d2", at))
	c.Put(cachedVec("d3", at))

	if got := c.Len(); got > 2 {
		t.Errorf("Len() = %d, want at most 2", got)
	}
	if _, ok := c.Get("d3", at); !ok {
		t.Errorf("most recent Put was evicted")
	}
}

func TestVectorCache_ConcurrentAccess(t *testing.T) {
	c := NewVectorCache(0)
	at := time.Unix(1700000000, 0)
	for _, id := range []string{"a", "b", "c"} {
		c.Put(cachedVec(id, at))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get("a", at)
				c.Get("b", at)
				if n%2 == 0 {
					c.Put(cachedVec("c", at.Add(time.Duration(j)*time.Second)))
				}
			}
		}(i)
	}
	wg.Wait()

	if _, ok := c.Get("a", at); !ok {
		t.Errorf("entry a lost during concurrent writes")
	}
}

func TestVectorCache_Clear(t *testing.T) {
	c := NewVectorCache(0)
	c.Put(cachedVec("d1", time.Unix(1700000000, 0)))
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}
