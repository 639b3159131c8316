package chain

import (
	"path/filepath"
	"testing"

	"github.com/slangchain/filterchain/preset"
)

func TestCacheKeyStableAndDiscriminating(t *testing.T) {
	a := CacheKey("vulkan", []byte("bytecode"), preset.FormatR8G8B8A8Unorm)
	b := CacheKey("vulkan", []byte("bytecode"), preset.FormatR8G8B8A8Unorm)
	if a != b {
		t.Fatalf("identical inputs should produce identical keys")
	}

	c := CacheKey("vulkan", []byte("bytecode"), preset.FormatR16G16B16A16Sfloat)
	if a == c {
		t.Fatalf("different target formats should produce different keys")
	}

	d := CacheKey("vulkan", []byte("bytecode"), preset.FormatR8G8B8A8Unorm, "state=1")
	if a == d {
		t.Fatalf("different state fields should produce different keys")
	}
}

func TestPipelineCacheRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pipelines")
	cache, err := NewPipelineCache(dir, false)
	if err != nil {
		t.Fatalf("NewPipelineCache: %v", err)
	}

	key := CacheKey("software", []byte("x"), preset.FormatR8G8B8A8Unorm)
	if _, ok := cache.Load(key); ok {
		t.Fatalf("expected a miss before any Store")
	}

	blob := []byte{1, 2, 3, 4}
	if err := cache.Store(key, blob); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := cache.Load(key)
	if !ok {
		t.Fatalf("expected a hit after Store")
	}
	if string(got) != string(blob) {
		t.Fatalf("round-tripped blob mismatch: got %v want %v", got, blob)
	}
}

func TestPipelineCacheDisabledIsNoop(t *testing.T) {
	cache, err := NewPipelineCache("", true)
	if err != nil {
		t.Fatalf("NewPipelineCache: %v", err)
	}
	key := CacheKey("software", []byte("x"), preset.FormatR8G8B8A8Unorm)
	if err := cache.Store(key, []byte{1}); err != nil {
		t.Fatalf("Store on a disabled cache should not error: %v", err)
	}
	if _, ok := cache.Load(key); ok {
		t.Fatalf("disabled cache should never report a hit")
	}
}
