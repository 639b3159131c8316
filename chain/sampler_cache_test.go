package chain

import (
	"testing"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

type countingCaps struct {
	created int
}

func (c *countingCaps) Name() string { return "counting" }
func (c *countingCaps) CreateImage(ImageDescriptor) (Image, error) { return nil, nil }
func (c *countingCaps) CreateSampler(key SamplerKey) (Sampler, error) {
	c.created++
	return &fakeSampler{key: key}, nil
}
func (c *countingCaps) CreatePipeline(PipelineDescriptor) (Pipeline, error) { return nil, nil }
func (c *countingCaps) ClosestFormat(nominal preset.Format, usage ImageUsage) preset.Format {
	return nominal
}
func (c *countingCaps) UploadImageData(Image, []byte) error { return nil }

type fakeSampler struct{ key SamplerKey }

func TestSamplerCacheInternsByKey(t *testing.T) {
	caps := &countingCaps{}
	cache := NewSamplerCache(caps)

	key := SamplerKey{Wrap: preset.WrapRepeat, Min: preset.FilterLinear, Mag: preset.FilterLinear, Mip: preset.MipLinear}
	s1, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s2, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected the same interned sampler for an identical key")
	}
	if caps.created != 1 {
		t.Fatalf("expected exactly one backend CreateSampler call, got %d", caps.created)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one interned entry, got %d", cache.Len())
	}
}

func TestSamplerCacheExhaustion(t *testing.T) {
	caps := &countingCaps{}
	cache := NewSamplerCache(caps)

	wraps := []preset.WrapMode{preset.WrapClampToBorder, preset.WrapClampToEdge, preset.WrapRepeat, preset.WrapMirroredRepeat}
	mins := []preset.FilterMode{preset.FilterLinear, preset.FilterNearest}
	mags := []preset.FilterMode{preset.FilterLinear, preset.FilterNearest}
	mips := []preset.MipFilter{preset.MipUnspecified, preset.MipLinear, preset.MipNearest}

	// 4 wraps * 2 mins * 2 mags * 3 mips == 48 == MaxSamplerEntries.
	n := 0
	for _, w := range wraps {
		for _, min := range mins {
			for _, mag := range mags {
				for _, mip := range mips {
					_, err := cache.Get(SamplerKey{Wrap: w, Min: min, Mag: mag, Mip: mip})
					if err != nil {
						t.Fatalf("Get: %v", err)
					}
					n++
				}
			}
		}
	}
	if n < MaxSamplerEntries {
		t.Fatalf("test setup did not reach the cache limit, only generated %d distinct keys", n)
	}

	_, err := cache.Get(SamplerKey{Wrap: 99, Min: 99, Mag: 99, Mip: 99})
	if !chainerr.Is(err, chainerr.AllocationFailed) {
		t.Fatalf("expected AllocationFailed once the cache is full, got %v", err)
	}
}
