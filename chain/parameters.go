package chain

import (
	"math"
	"sync/atomic"

	"github.com/slangchain/filterchain/internal/chainerr"
)

// ParameterRegistry is the thread-safe name -> float32 store backing a
// chain's user parameters and its active-pass count. Values
// are stored as raw bits behind atomic.Uint32 so concurrent Get/Set pairs
// can never observe a torn float32, and Frame takes one consistent
// snapshot at the start of each call rather than re-reading mid-frame.
type ParameterRegistry struct {
	values          map[string]*atomic.Uint32
	totalPasses     int
	activePassCount atomic.Uint32
}

// NewParameterRegistry seeds the registry from a preset's declared
// parameters and initializes the active pass count to every pass enabled.
func NewParameterRegistry(defaults map[string]float32, totalPasses int) *ParameterRegistry {
	values := make(map[string]*atomic.Uint32, len(defaults))
	for name, v := range defaults {
		a := &atomic.Uint32{}
		a.Store(math.Float32bits(v))
		values[name] = a
	}
	r := &ParameterRegistry{values: values, totalPasses: totalPasses}
	r.activePassCount.Store(uint32(totalPasses))
	return r
}

// Get returns a parameter's current value. ok is false when name was not
// declared by the preset.
func (r *ParameterRegistry) Get(name string) (value float32, ok bool) {
	a, found := r.values[name]
	if !found {
		return 0, false
	}
	return math.Float32frombits(a.Load()), true
}

// Set updates an existing parameter. It never creates a new entry: setting
// a name the preset did not declare fails with UnknownParameter.
func (r *ParameterRegistry) Set(name string, value float32) error {
	a, found := r.values[name]
	if !found {
		return chainerr.New(chainerr.UnknownParameter, "unknown parameter \""+name+"\"")
	}
	a.Store(math.Float32bits(value))
	return nil
}

// Snapshot copies every current value into a plain map, used once at the
// start of Frame so every pass in that frame observes the same values
// even if another goroutine calls Set concurrently.
func (r *ParameterRegistry) Snapshot() map[string]float32 {
	out := make(map[string]float32, len(r.values))
	for name, a := range r.values {
		out[name] = math.Float32frombits(a.Load())
	}
	return out
}

// ActivePassCount returns how many leading passes of the chain currently
// run; passes at or beyond this count are skipped.
func (r *ParameterRegistry) ActivePassCount() uint32 {
	return r.activePassCount.Load()
}

// SetActivePassCount changes how many leading passes run, clamping n to
// the chain's compiled pass count rather than rejecting an out-of-range
// value.
func (r *ParameterRegistry) SetActivePassCount(n uint32) {
	if int(n) > r.totalPasses {
		n = uint32(r.totalPasses)
	}
	r.activePassCount.Store(n)
}
