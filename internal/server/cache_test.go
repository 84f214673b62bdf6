package server

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/testchart"
)

func TestCache_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standard.png")
	if err := os.WriteFile(path, testchart.Standard().PNG(), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache()
	var wg sync.WaitGroup
	entries := make([]*chartEntry, 8)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.Load(path)
			if err != nil {
				t.Errorf("Load failed: %v", err)
				return
			}
			entries[i] = e
		}(i)
	}
	wg.Wait()

	for i, e := range entries {
		if e != entries[0] {
			t.Errorf("load %d returned a different entry", i)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}

	norm, err := entries[0].normalized()
	if err != nil {
		t.Fatalf("normalized failed: %v", err)
	}
	again, _ := entries[0].normalized()
	if norm != again {
		t.Error("normalized should be computed once")
	}

	c.Evict(path)
	if c.Len() != 0 {
		t.Errorf("Len after Evict: got %d, want 0", c.Len())
	}
}

func TestCache_InvalidImageNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache()
	if _, err := c.Load(path); !errors.Is(err, imaging.ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed load was cached")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear left entries")
	}
}
