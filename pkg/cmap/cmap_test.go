// Package cmap provides a concurrent-safe sharded map.
package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestMapBasicOperations(t *testing.T) {
	m := New[string, int]()

	if _, ok := m.Get("missing"); ok {
		t.Error("Get on empty map should miss")
	}

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if !m.Has("b") {
		t.Error("Has(b) = false, want true")
	}
	if got := m.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("a should be gone after Delete")
	}

	m.Clear()
	if got := m.Count(); got != 0 {
		t.Errorf("Count() after Clear = %d, want 0", got)
	}
}

func TestMapGetOrSet(t *testing.T) {
	m := New[string, int]()

	v, loaded := m.GetOrSet("k", 1)
	if loaded || v != 1 {
		t.Errorf("first GetOrSet = %d, %v; want 1, false", v, loaded)
	}

	v, loaded = m.GetOrSet("k", 99)
	if !loaded || v != 1 {
		t.Errorf("second GetOrSet = %d, %v; want 1, true", v, loaded)
	}
}

func TestMapPop(t *testing.T) {
	m := New[uint64, string]()
	m.Set(7, "seven")

	v, ok := m.Pop(7)
	if !ok || v != "seven" {
		t.Errorf("Pop(7) = %q, %v; want seven, true", v, ok)
	}
	if _, ok := m.Pop(7); ok {
		t.Error("second Pop should miss")
	}
}

func TestMapRangeAndKeys(t *testing.T) {
	m := New[string, int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return true
	})
	if seen != 50 {
		t.Errorf("Range visited %d entries, want 50", seen)
	}

	if got := len(m.Keys()); got != 50 {
		t.Errorf("len(Keys()) = %d, want 50", got)
	}

	// Early stop.
	seen = 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return seen < 10
	})
	if seen != 10 {
		t.Errorf("Range with early stop visited %d entries, want 10", seen)
	}
}

func TestMapInvalidShardCount(t *testing.T) {
	for _, n := range []int{0, -1, 3, 17} {
		m := NewWithShards[string, int](n)
		if len(m.shards) != DefaultShardCount {
			t.Errorf("NewWithShards(%d) used %d shards, want %d", n, len(m.shards), DefaultShardCount)
		}
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := New[uint64, uint64]()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 1000; i++ {
				k := base*1000 + i
				m.Set(k, i)
				if v, ok := m.Get(k); !ok || v != i {
					t.Errorf("Get(%d) = %d, %v; want %d, true", k, v, ok, i)
					return
				}
			}
		}(uint64(w))
	}
	wg.Wait()

	if got := m.Count(); got != 8000 {
		t.Errorf("Count() = %d, want 8000", got)
	}
}
