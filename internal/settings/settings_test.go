package settings

import (
	"sync"
	"testing"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	v, ok := m.Get("absent")
	if ok {
		t.Error("Get on empty store should report absent")
	}
	if v != "" {
		t.Errorf("value = %q, want empty", v)
	}
}

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	if err := m.Set("saved_urls_v1", "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok := m.Get("saved_urls_v1")
	if !ok || v != "[]" {
		t.Errorf("Get = (%q, %v), want (\"[]\", true)", v, ok)
	}
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory()
	_ = m.Set("k", "first")
	_ = m.Set("k", "second")
	v, _ := m.Get("k")
	if v != "second" {
		t.Errorf("value = %q, want %q", v, "second")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set("k", "v")
			_, _ = m.Get("k")
		}()
	}
	wg.Wait()
}
