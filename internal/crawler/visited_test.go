package crawler

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestVisitedSet tests check-and-insert semantics.
func TestVisitedSet(t *testing.T) {
	t.Parallel()

	t.Run("marks a URL once", func(t *testing.T) {
		t.Parallel()

		v := NewVisitedSet()
		u := mustParseURL(t, "https://neovim.io/doc/user/")

		if !v.Mark(u) {
			t.Fatal("first Mark should return true")
		}
		if v.Mark(u) {
			t.Error("second Mark should return false")
		}
		if !v.Contains(u) {
			t.Error("expected URL to be contained")
		}
		if v.Len() != 1 {
			t.Errorf("expected len 1, got %d", v.Len())
		}
	})

	t.Run("concurrent marks claim a URL exactly once", func(t *testing.T) {
		t.Parallel()

		v := NewVisitedSet()
		u := mustParseURL(t, "https://neovim.io/doc/user/intro.html")

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 64 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if v.Mark(u) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Errorf("expected exactly one winner, got %d", wins.Load())
		}
	})
}
