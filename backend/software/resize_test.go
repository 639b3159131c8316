package software

import "testing"

func TestResizeNearestIdentity(t *testing.T) {
	src := []float32{
		0, 0, 0, 1, 1, 1, 1, 1,
		2, 2, 2, 1, 3, 3, 3, 1,
	}
	got := resizeNearest(src, 2, 2, 2, 2)
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("identity resize mismatch at %d: got %v want %v", i, got[i], src[i])
		}
	}
}

func TestResizeNearestUpscale(t *testing.T) {
	src := []float32{0, 0, 0, 1, 1, 1, 1, 1} // 2x1, two pixels
	got := resizeNearest(src, 2, 1, 4, 1)
	if len(got) != 4*1*4 {
		t.Fatalf("unexpected output length %d", len(got))
	}
	// First two output pixels should sample the first source pixel,
	// the last two the second.
	if got[0] != 0 || got[4] != 0 {
		t.Fatalf("expected left half to sample the first source pixel, got %v", got)
	}
	if got[8] != 1 || got[12] != 1 {
		t.Fatalf("expected right half to sample the second source pixel, got %v", got)
	}
}

func TestBoxDownsampleAveragesBlocks(t *testing.T) {
	src := []float32{
		0, 0, 0, 1, 1, 0, 0, 1,
		0, 1, 0, 1, 1, 1, 0, 1,
	}
	dst, w, h := boxDownsample(src, 2, 2)
	if w != 1 || h != 1 {
		t.Fatalf("expected a single 1x1 output block, got %dx%d", w, h)
	}
	if dst[0] != 0.5 || dst[1] != 0.5 || dst[2] != 0 || dst[3] != 1 {
		t.Fatalf("unexpected averaged pixel: %v", dst)
	}
}

func TestBoxDownsampleOddDimensions(t *testing.T) {
	// A 3x1 input halves to a 1x1 mip (mipDim(3,1) == 1): the block only
	// covers the first two source columns, matching mipDim's floor-divide
	// rather than attempting to cover every source column.
	src := []float32{
		1, 1, 1, 1,
		0, 0, 0, 1,
		1, 0, 1, 1,
	}
	dst, w, h := boxDownsample(src, 3, 1)
	if w != 1 || h != 1 {
		t.Fatalf("expected 1x1 output, got %dx%d", w, h)
	}
	if dst[0] != 0.5 || dst[1] != 0.5 || dst[2] != 0.5 || dst[3] != 1 {
		t.Fatalf("unexpected averaged pixel: %v", dst)
	}
}
