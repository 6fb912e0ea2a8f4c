package palette

import (
	"image"
	"image/color"
	"image/draw"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// Swatch renders the palette as a horizontal strip of tile×tile squares,
// ordered from dark to light. An empty palette yields a single transparent
// tile.
func Swatch(p color.Palette, tile int) *image.NRGBA {
	tile = max(tile, 1)
	if len(p) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, tile, tile))
	}

	sorted := slices.Clone(p)
	slices.SortStableFunc(sorted, func(a, b color.Color) int {
		la, lb := luminance(a), luminance(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})

	out := image.NewNRGBA(image.Rect(0, 0, tile*len(sorted), tile))
	for i, c := range sorted {
		r := image.Rect(i*tile, 0, (i+1)*tile, tile)
		draw.Draw(out, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	return out
}

func luminance(c color.Color) float64 {
	col, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	l, _, _ := col.Lab()
	return l
}
