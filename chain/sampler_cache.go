package chain

import "github.com/slangchain/filterchain/internal/chainerr"

// MaxSamplerEntries bounds the sampler cache. A preset draws its sampler
// parameters from a small, closed set of wrap/filter/mip combinations, so
// a fixed table is simpler than an LRU and never needs eviction.
const MaxSamplerEntries = 48

// SamplerCache interns backend samplers by their (wrap, min, mag, mip)
// key. Entries are created once and held for the lifetime
// of the chain; none are ever evicted.
type SamplerCache struct {
	caps    Capabilities
	entries map[SamplerKey]Sampler
}

func NewSamplerCache(caps Capabilities) *SamplerCache {
	return &SamplerCache{caps: caps, entries: make(map[SamplerKey]Sampler, MaxSamplerEntries)}
}

// Get returns the interned sampler for key, creating it on first request.
func (c *SamplerCache) Get(key SamplerKey) (Sampler, error) {
	if s, ok := c.entries[key]; ok {
		return s, nil
	}
	if len(c.entries) >= MaxSamplerEntries {
		return nil, chainerr.New(chainerr.AllocationFailed, "sampler cache exhausted its maximum of 48 distinct combinations")
	}
	s, err := c.caps.CreateSampler(key)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.AllocationFailed, "creating sampler", err)
	}
	c.entries[key] = s
	return s, nil
}

// Len reports how many distinct sampler combinations are currently
// interned.
func (c *SamplerCache) Len() int { return len(c.entries) }
