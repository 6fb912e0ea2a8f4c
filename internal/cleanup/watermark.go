// Package cleanup removes generator artifacts and padding around pixel art.
//
// All functions take and return *image.NRGBA rasters with bounds at the
// origin and never modify their input.
package cleanup

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
)

// Watermark detection constants. The region is the bottom-right corner where
// image generators stamp their logo.
const (
	WatermarkMinSize   = 300 // images smaller than this on either axis are left alone
	WatermarkRegion    = 250 // side of the inspected corner square
	WatermarkThreshold = 30  // RGB distance from the background that marks a pixel
	WatermarkPadding   = 5   // margin added around the detected box
	WatermarkMaxHeight = 180 // boxes this tall or taller are treated as artwork
	WatermarkMaxWidth  = 220 // boxes this wide or wider are treated as artwork
)

// RemoveWatermark erases a small logo from the bottom-right corner by
// filling its bounding box with the corner's median color.
//
// The input is returned as is when it is too small, when the corner has no
// outlier pixels, or when the outliers span most of the corner, which points
// at real content rather than a logo.
func RemoveWatermark(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < WatermarkMinSize || h < WatermarkMinSize {
		return img
	}

	region := image.Rect(w-WatermarkRegion, h-WatermarkRegion, w, h).Add(b.Min)
	bg := regionMedian(img, region)

	rmin, rmax, cmin, cmax := WatermarkRegion, -1, WatermarkRegion, -1
	for y := 0; y < WatermarkRegion; y++ {
		for x := 0; x < WatermarkRegion; x++ {
			c := img.NRGBAAt(region.Min.X+x, region.Min.Y+y)
			if rgbDistance(c, bg) <= WatermarkThreshold {
				continue
			}
			rmin, rmax = min(rmin, y), max(rmax, y)
			cmin, cmax = min(cmin, x), max(cmax, x)
		}
	}
	if rmax < 0 {
		return img
	}

	rmin = max(0, rmin-WatermarkPadding)
	rmax = min(WatermarkRegion, rmax+WatermarkPadding)
	cmin = max(0, cmin-WatermarkPadding)
	cmax = min(WatermarkRegion, cmax+WatermarkPadding)
	if rmax-rmin >= WatermarkMaxHeight || cmax-cmin >= WatermarkMaxWidth {
		return img
	}

	out := imaging.ToNRGBA(img)
	for y := rmin; y < rmax; y++ {
		for x := cmin; x < cmax; x++ {
			out.SetNRGBA(region.Min.X-b.Min.X+x, region.Min.Y-b.Min.Y+y, bg)
		}
	}
	return out
}

// regionMedian returns the per-channel median color of r. r must not be empty.
func regionMedian(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	n := r.Dx() * r.Dy()
	channels := [4][]float64{}
	for i := range channels {
		channels[i] = make([]float64, 0, n)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			channels[0] = append(channels[0], float64(c.R))
			channels[1] = append(channels[1], float64(c.G))
			channels[2] = append(channels[2], float64(c.B))
			channels[3] = append(channels[3], float64(c.A))
		}
	}
	var m [4]uint8
	for i, values := range channels {
		sort.Float64s(values)
		// Even counts take the mean of the two middle values. The fill
		// color truncates it.
		lower := stat.Quantile(0.5, stat.Empirical, values, nil)
		upper := values[len(values)/2]
		m[i] = uint8((lower + upper) / 2)
	}
	return color.NRGBA{m[0], m[1], m[2], m[3]}
}

func rgbDistance(a, b color.NRGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
