package chain

import (
	"sync"
	"testing"

	"github.com/slangchain/filterchain/internal/chainerr"
)

func TestParameterRegistryGetSet(t *testing.T) {
	r := NewParameterRegistry(map[string]float32{"gain": 1.5}, 3)

	v, ok := r.Get("gain")
	if !ok || v != 1.5 {
		t.Fatalf("expected default 1.5, got %v ok=%v", v, ok)
	}

	if err := r.Set("gain", 2.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ = r.Get("gain")
	if v != 2.0 {
		t.Fatalf("expected 2.0 after Set, got %v", v)
	}

	if err := r.Set("missing", 1); !chainerr.Is(err, chainerr.UnknownParameter) {
		t.Fatalf("expected UnknownParameter, got %v", err)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("Get should report ok=false for an undeclared parameter")
	}
}

func TestParameterRegistryActivePassCount(t *testing.T) {
	r := NewParameterRegistry(nil, 4)
	if r.ActivePassCount() != 4 {
		t.Fatalf("expected all 4 passes active by default, got %d", r.ActivePassCount())
	}
	r.SetActivePassCount(2)
	if r.ActivePassCount() != 2 {
		t.Fatalf("expected 2 active passes, got %d", r.ActivePassCount())
	}
	r.SetActivePassCount(5)
	if r.ActivePassCount() != 4 {
		t.Fatalf("expected an over-range count to clamp to the chain's 4 passes, got %d", r.ActivePassCount())
	}
}

func TestParameterRegistrySnapshotIsIndependent(t *testing.T) {
	r := NewParameterRegistry(map[string]float32{"a": 1}, 1)
	snap := r.Snapshot()
	r.Set("a", 99)
	if snap["a"] != 1 {
		t.Fatalf("snapshot should not observe later Set calls, got %v", snap["a"])
	}
}

func TestParameterRegistryConcurrentAccess(t *testing.T) {
	r := NewParameterRegistry(map[string]float32{"x": 0}, 1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v float32) {
			defer wg.Done()
			r.Set("x", v)
			r.Get("x")
		}(float32(i))
	}
	wg.Wait() // must not race or panic; final value is whichever write landed last
}
