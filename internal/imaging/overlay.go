package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/anthonynsimon/bild/clone"
)

// DefaultLineColor is the overlay color used when none is given: opaque red.
var DefaultLineColor = color.RGBA{255, 0, 0, 255}

// MeshOverlay draws vertical lines at xs and horizontal lines at ys over a
// copy of img, for visual inspection of a detected mesh.
//
// A line at position p marks the boundary in front of pixel p, so it is drawn
// on column (or row) p. The closing line at the axis length is drawn on the
// last column/row. When label is non-empty it is printed in the top-left cell
// using the small digit font below (digits and commas only).
func MeshOverlay(img image.Image, xs, ys []int, lineColor color.RGBA, label string) *image.RGBA {
	result := clone.AsRGBA(img)
	bounds := result.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return result
	}

	for _, x := range xs {
		x = clamp(x, 0, width-1)
		for y := 0; y < height; y++ {
			result.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, lineColor)
		}
	}
	for _, y := range ys {
		y = clamp(y, 0, height-1)
		for x := 0; x < width; x++ {
			result.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, lineColor)
		}
	}

	if label != "" {
		drawLabel(result, bounds.Min.X+2, bounds.Min.Y+2, label,
			color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 180})
	}
	return result
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// glyphs is a 3x5 pixel font for digits and comma.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel draws text at (x, y) on a filled background box.
// Characters without a glyph advance the cursor and are otherwise skipped.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7
	inside := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if px, py := x+dx, y+dy; inside(px, py) {
				img.SetRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if px, py := cx+col, y+row; inside(px, py) {
					img.SetRGBA(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
