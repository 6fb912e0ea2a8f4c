// Package palette reduces the color space of an image to a bounded palette.
//
// Quantization runs before cells are collapsed so that the anti-aliasing
// fringe around each logical pixel snaps onto the same few colors as the
// pixel interiors. Only pixels that are not fully transparent take part in
// fitting the palette; alpha is carried through untouched.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
)

// MaxColors is the largest palette Quantize builds.
const MaxColors = 256

// ErrColorCount is returned when the requested palette size is outside [1, MaxColors].
var ErrColorCount = errors.New("color count out of range")

// Method selects the palette-fitting algorithm.
type Method int

const (
	// MedianCut recursively splits the color population at its median.
	// It is deterministic and the default.
	MedianCut Method = iota

	// KMeans clusters sampled pixels with k-means. Initial centers are
	// random, so repeated runs may differ slightly.
	KMeans

	// Dominant picks weighted dominant colors.
	Dominant
)

func (m Method) String() string {
	switch m {
	case KMeans:
		return "kmeans"
	case Dominant:
		return "dominant"
	default:
		return "mediancut"
	}
}

// ParseMethod maps a method name to a Method. The empty string selects MedianCut.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mediancut", "median-cut", "median_cut":
		return MedianCut, nil
	case "kmeans", "k-means":
		return KMeans, nil
	case "dominant", "dominantcolor":
		return Dominant, nil
	default:
		return MedianCut, fmt.Errorf("unknown palette method %q", name)
	}
}

// Options controls Quantize.
type Options struct {
	Method Method
}

// Quantize maps every pixel of img onto a palette of at most colorCount colors.
//
// The returned image has the same size as img with bounds at the origin.
// Each pixel's RGB is replaced by its nearest palette entry (distance in
// CIE Lab) while its alpha is kept. Fully transparent pixels are remapped
// too but never influence the palette. When img already holds no more than
// colorCount distinct colors those colors form the palette and the result
// equals the input. A fully transparent image yields a copy and an empty
// palette.
func Quantize(img image.Image, colorCount int, opts Options) (*image.NRGBA, color.Palette, error) {
	if colorCount < 1 || colorCount > MaxColors {
		return nil, nil, fmt.Errorf("%w: %d not in [1,%d]", ErrColorCount, colorCount, MaxColors)
	}
	src := imaging.ToNRGBA(img)

	hist := histogram(src)
	if len(hist) == 0 {
		return src, nil, nil
	}

	var pal []rgb
	if len(hist) <= colorCount {
		pal = exactPalette(hist)
	} else {
		switch opts.Method {
		case KMeans:
			pal = kmeansPalette(src, colorCount)
		case Dominant:
			pal = dominantPalette(src, colorCount)
		}
		if len(pal) == 0 {
			pal = medianCut(hist, colorCount)
		}
	}

	return remap(src, pal), toColorPalette(pal), nil
}

// rgb is an opaque 8-bit color.
type rgb struct{ R, G, B uint8 }

func (c rgb) key() uint32 { return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B) }

func rgbFromKey(k uint32) rgb { return rgb{uint8(k >> 16), uint8(k >> 8), uint8(k)} }

func (c rgb) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// histogram counts the RGB values of all pixels that are not fully transparent.
func histogram(img *image.NRGBA) map[uint32]int {
	hist := make(map[uint32]int)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i+3] == 0 {
			continue
		}
		hist[uint32(img.Pix[i])<<16|uint32(img.Pix[i+1])<<8|uint32(img.Pix[i+2])]++
	}
	return hist
}

func exactPalette(hist map[uint32]int) []rgb {
	keys := make([]uint32, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	pal := make([]rgb, len(keys))
	for i, k := range keys {
		pal[i] = rgbFromKey(k)
	}
	return pal
}

// remap replaces every pixel's RGB with its nearest palette color.
func remap(src *image.NRGBA, pal []rgb) *image.NRGBA {
	labs := make([]colorful.Color, len(pal))
	for i, c := range pal {
		labs[i] = c.colorful()
	}
	nearest := make(map[uint32]rgb)

	out := image.NewNRGBA(src.Bounds())
	for i := 0; i+3 < len(src.Pix); i += 4 {
		k := uint32(src.Pix[i])<<16 | uint32(src.Pix[i+1])<<8 | uint32(src.Pix[i+2])
		c, ok := nearest[k]
		if !ok {
			c = pal[nearestIndex(labs, rgbFromKey(k).colorful())]
			nearest[k] = c
		}
		out.Pix[i] = c.R
		out.Pix[i+1] = c.G
		out.Pix[i+2] = c.B
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

func nearestIndex(pal []colorful.Color, c colorful.Color) int {
	best, bestD := 0, -1.0
	for i, p := range pal {
		d := c.DistanceLab(p)
		if bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func toColorPalette(pal []rgb) color.Palette {
	out := make(color.Palette, len(pal))
	for i, c := range pal {
		out[i] = color.NRGBA{c.R, c.G, c.B, 255}
	}
	return out
}
