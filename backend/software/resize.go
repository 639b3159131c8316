package software

// resizeNearest resamples a srcW x srcH RGBA float32 buffer into a
// dstW x dstH one using nearest-neighbor sampling. It is used for both
// Draw's texture-to-target resolve and the direct-blit/history-push
// paths, so "Identity" (srcW==dstW, srcH==dstH) reproduces the source
// exactly and "Scale" produces a deterministic, easily-asserted result.
func resizeNearest(src []float32, srcW, srcH, dstW, dstH uint32) []float32 {
	dst := make([]float32, int(dstW)*int(dstH)*4)
	if srcW == 0 || srcH == 0 || dstW == 0 || dstH == 0 {
		return dst
	}
	for y := uint32(0); y < dstH; y++ {
		sy := y * srcH / dstH
		if sy >= srcH {
			sy = srcH - 1
		}
		for x := uint32(0); x < dstW; x++ {
			sx := x * srcW / dstW
			if sx >= srcW {
				sx = srcW - 1
			}
			srcIdx := (sy*srcW + sx) * 4
			dstIdx := (y*dstW + x) * 4
			copy(dst[dstIdx:dstIdx+4], src[srcIdx:srcIdx+4])
		}
	}
	return dst
}

// boxDownsample halves a buffer's dimensions by averaging each 2x2 block,
// used to build mip chains deterministically.
func boxDownsample(src []float32, srcW, srcH uint32) (dst []float32, dstW, dstH uint32) {
	dstW, dstH = mipDim(srcW, 1), mipDim(srcH, 1)
	dst = make([]float32, int(dstW)*int(dstH)*4)
	for y := uint32(0); y < dstH; y++ {
		for x := uint32(0); x < dstW; x++ {
			var sum [4]float32
			n := 0
			for dy := uint32(0); dy < 2; dy++ {
				sy := y*2 + dy
				if sy >= srcH {
					continue
				}
				for dx := uint32(0); dx < 2; dx++ {
					sx := x*2 + dx
					if sx >= srcW {
						continue
					}
					idx := (sy*srcW + sx) * 4
					for c := 0; c < 4; c++ {
						sum[c] += src[idx+uint32(c)]
					}
					n++
				}
			}
			dstIdx := (y*dstW + x) * 4
			if n == 0 {
				n = 1
			}
			for c := 0; c < 4; c++ {
				dst[dstIdx+uint32(c)] = sum[c] / float32(n)
			}
		}
	}
	return dst, dstW, dstH
}
