package palette

import (
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// maxSamples bounds the number of pixels handed to k-means.
const maxSamples = 12000

// kmeansPalette clusters a subsample of the non-transparent pixels into at
// most k colors. It returns nil when clustering is impossible.
func kmeansPalette(img *image.NRGBA, k int) []rgb {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := 0; y < height; y += step {
		for x := 0; x < width; x += step {
			i := img.PixOffset(x, y)
			if img.Pix[i+3] == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(img.Pix[i]) / 255,
				float64(img.Pix[i+1]) / 255,
				float64(img.Pix[i+2]) / 255,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}
	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	pal := make([]rgb, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		pal = appendUnique(pal, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]})
	}
	return pal
}

// dominantPalette picks the k most dominant colors by weight.
func dominantPalette(img *image.NRGBA, k int) []rgb {
	var pal []rgb
	for _, c := range dominantcolor.FindWeight(img, k) {
		col, _ := colorful.MakeColor(c.RGBA)
		pal = appendUnique(pal, col)
	}
	return pal
}

func appendUnique(pal []rgb, c colorful.Color) []rgb {
	r, g, b := c.Clamped().RGB255()
	v := rgb{r, g, b}
	if slices.Contains(pal, v) {
		return pal
	}
	return append(pal, v)
}
