package cleanup

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Trim crops img to the tight bounding box of its pixels with non-zero
// alpha. A fully transparent image trims to a single transparent pixel.
func Trim(img *image.NRGBA) *image.NRGBA {
	box, ok := opaqueBounds(img)
	if !ok {
		return imaging.New(1, 1, color.NRGBA{})
	}
	return imaging.Crop(img, box)
}

// opaqueBounds returns the bounding box of the pixels with alpha > 0.
func opaqueBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
