package noteforge

import (
	"sync"
	"testing"
)

func TestTemplateCache(t *testing.T) {
	cache := newTemplateCache()

	if _, ok := cache.GetRaw("a"); ok {
		t.Error("empty cache reported a hit")
	}

	cache.SetRaw("a", "source-a")
	got, ok := cache.GetRaw("a")
	if !ok || got != "source-a" {
		t.Errorf("GetRaw = (%q, %v)", got, ok)
	}

	// First write wins; a racing second write observes the original.
	if kept := cache.SetRaw("a", "other"); kept != "source-a" {
		t.Errorf("SetRaw returned %q, want original entry", kept)
	}

	cache.SetResolved("a", "resolved-a")
	got, ok = cache.GetResolved("a")
	if !ok || got != "resolved-a" {
		t.Errorf("GetResolved = (%q, %v)", got, ok)
	}

	if cache.Size() != 1 {
		t.Errorf("Size = %d, want 1", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size after Clear = %d", cache.Size())
	}
	if _, ok := cache.GetResolved("a"); ok {
		t.Error("resolved entry survived Clear")
	}
}

func TestTemplateCacheConcurrentAccess(t *testing.T) {
	cache := newTemplateCache()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.SetRaw("shared", "value")
				if v, ok := cache.GetRaw("shared"); ok && v != "value" {
					t.Errorf("unexpected value %q", v)
				}
			}
		}()
	}
	wg.Wait()

	if v, ok := cache.GetRaw("shared"); !ok || v != "value" {
		t.Errorf("final GetRaw = (%q, %v)", v, ok)
	}
}
