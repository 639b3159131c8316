package chain

import (
	"strconv"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

// LutImage is a decoded lookup texture: tightly packed pixel data plus the
// extent and format it was decoded at.
type LutImage struct {
	Width, Height uint32
	Format        preset.Format
	Pixels        []byte
}

// LutDecoder is the external collaborator that turns a preset.Lut's Path
// into pixel data: real decoding of PNG/TGA/etc LUT files is
// out of scope for the core runtime.
type LutDecoder interface {
	Decode(path string) (LutImage, error)
}

// StaticLutDecoder implements LutDecoder from a fixed table, the LUT
// equivalent of reflect.StaticCompiler.
type StaticLutDecoder struct {
	images map[string]LutImage
}

func NewStaticLutDecoder(images map[string]LutImage) *StaticLutDecoder {
	return &StaticLutDecoder{images: images}
}

func (d *StaticLutDecoder) Decode(path string) (LutImage, error) {
	img, ok := d.images[path]
	if !ok {
		return LutImage{}, chainerr.New(chainerr.Io, "no LUT registered for path \""+path+"\"")
	}
	return img, nil
}

// LoadedLut pairs a LUT's name (for binder lookups, via TexUser) with its
// device image and interned sampler.
type LoadedLut struct {
	Name    string
	Image   Image
	Sampler Sampler
}

// LutLoader loads every preset-declared LUT once, at chain construction
//: there is no per-frame LUT reload path.
type LutLoader struct {
	caps     Capabilities
	samplers *SamplerCache
	decoder  LutDecoder
}

func NewLutLoader(caps Capabilities, samplers *SamplerCache, decoder LutDecoder) *LutLoader {
	return &LutLoader{caps: caps, samplers: samplers, decoder: decoder}
}

// LoadAll decodes and uploads every LUT, generating mipmaps through rec
// where requested. On any failure it destroys whatever it already
// allocated before returning, leaving no partial state for the caller to
// clean up.
func (l *LutLoader) LoadAll(rec CommandRecorder, luts []preset.Lut) ([]LoadedLut, error) {
	out := make([]LoadedLut, 0, len(luts))
	for i := range luts {
		lut := &luts[i]
		loaded, err := l.loadOne(rec, lut)
		if err != nil {
			for _, done := range out {
				done.Image.Destroy()
			}
			return nil, chainerr.Wrap(chainerr.Io, "loading lut \""+lut.Name+"\" (index "+strconv.Itoa(i)+")", err)
		}
		out = append(out, loaded)
	}
	return out, nil
}

func (l *LutLoader) loadOne(rec CommandRecorder, lut *preset.Lut) (LoadedLut, error) {
	decoded, err := l.decoder.Decode(lut.Path)
	if err != nil {
		return LoadedLut{}, err
	}

	mipLevels := uint32(1)
	usage := UsageSample
	if lut.Mipmap {
		mipLevels = mipLevelsFor(decoded.Width, decoded.Height)
		usage |= UsageMipGen
	}

	img, err := l.caps.CreateImage(ImageDescriptor{
		Width: decoded.Width, Height: decoded.Height,
		Format: decoded.Format, MipLevels: mipLevels, Usage: usage,
	})
	if err != nil {
		return LoadedLut{}, err
	}

	if err := l.caps.UploadImageData(img, decoded.Pixels); err != nil {
		img.Destroy()
		return LoadedLut{}, err
	}

	if lut.Mipmap {
		rec.GenerateMipmaps(img)
	}

	mip := preset.MipUnspecified
	if lut.Mipmap {
		mip = preset.MipLinear
	}
	sampler, err := l.samplers.Get(SamplerKey{Wrap: lut.WrapMode, Min: lut.Filter, Mag: lut.Filter, Mip: mip})
	if err != nil {
		img.Destroy()
		return LoadedLut{}, err
	}

	return LoadedLut{Name: lut.Name, Image: img, Sampler: sampler}, nil
}
