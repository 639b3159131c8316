package software

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

func TestCreateImageRejectsZeroSize(t *testing.T) {
	dev := NewDevice()
	_, err := dev.CreateImage(chain.ImageDescriptor{Width: 0, Height: 4, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1})
	if !chainerr.Is(err, chainerr.AllocationFailed) {
		t.Fatalf("expected AllocationFailed, got %v", err)
	}
}

func TestUploadImageDataUnorm(t *testing.T) {
	dev := NewDevice()
	imgIface, err := dev.CreateImage(chain.ImageDescriptor{Width: 1, Height: 1, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1})
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	img := imgIface.(*Image)
	if err := dev.UploadImageData(img, []byte{255, 128, 0, 255}); err != nil {
		t.Fatalf("UploadImageData: %v", err)
	}
	got := img.Mip0()
	if got[0] != 1 {
		t.Fatalf("expected full-intensity red channel, got %v", got[0])
	}
	if got[2] != 0 {
		t.Fatalf("expected zero blue channel, got %v", got[2])
	}
}

func TestUploadImageDataSfloat(t *testing.T) {
	dev := NewDevice()
	imgIface, err := dev.CreateImage(chain.ImageDescriptor{Width: 1, Height: 1, Format: preset.FormatR16G16B16A16Sfloat, MipLevels: 1})
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	img := imgIface.(*Image)

	pixels := make([]byte, 16)
	binary.LittleEndian.PutUint32(pixels[0:], math.Float32bits(2.5))
	binary.LittleEndian.PutUint32(pixels[4:], math.Float32bits(-1.0))
	binary.LittleEndian.PutUint32(pixels[8:], math.Float32bits(0.0))
	binary.LittleEndian.PutUint32(pixels[12:], math.Float32bits(1.0))

	if err := dev.UploadImageData(img, pixels); err != nil {
		t.Fatalf("UploadImageData: %v", err)
	}
	got := img.Mip0()
	if got[0] != 2.5 || got[1] != -1.0 || got[2] != 0.0 || got[3] != 1.0 {
		t.Fatalf("unexpected decoded packed-float pixel: %v", got)
	}
}

func TestUploadImageDataRejectsShortBuffer(t *testing.T) {
	dev := NewDevice()
	imgIface, _ := dev.CreateImage(chain.ImageDescriptor{Width: 2, Height: 2, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1})
	img := imgIface.(*Image)
	err := dev.UploadImageData(img, []byte{1, 2, 3})
	if !chainerr.Is(err, chainerr.InvalidParameter) {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}
