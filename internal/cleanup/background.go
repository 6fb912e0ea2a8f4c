package cleanup

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
)

// DefaultBackgroundTolerance is the CIE Lab distance under which a pixel
// counts as the same color as the corner it was reached from.
const DefaultBackgroundTolerance = 0.03

// Transparentize flood-fills from each of the four corners and clears every
// pixel reached, leaving it fully transparent.
//
// A fill spreads through 4-connected pixels whose color lies within
// tolerance of its seed corner. Fully transparent pixels only match each
// other, so a background that is already transparent keeps spreading.
// Background fragments that touch no corner are kept.
func Transparentize(img *image.NRGBA, tolerance float64) *image.NRGBA {
	out := imaging.ToNRGBA(img)
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return out
	}

	cleared := make([]bool, w*h)
	corners := []image.Point{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}}
	for _, seed := range corners {
		if cleared[seed.Y*w+seed.X] {
			continue
		}
		fill(out, cleared, seed, tolerance)
	}

	for i, done := range cleared {
		if !done {
			continue
		}
		o := (i/w)*out.Stride + (i%w)*4
		copy(out.Pix[o:o+4], []uint8{0, 0, 0, 0})
	}
	return out
}

// fill marks every pixel reachable from seed through matching colors.
// Matching is measured against the seed, so a gradient cannot carry the
// fill away from the background color.
func fill(img *image.NRGBA, cleared []bool, seed image.Point, tolerance float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	ref := img.NRGBAAt(seed.X, seed.Y)
	refTransparent := ref.A == 0
	refLab := toColorful(ref.R, ref.G, ref.B)

	// Per distinct color the match result is cached; backgrounds are flat.
	matches := make(map[[4]uint8]bool)
	match := func(x, y int) bool {
		o := y*img.Stride + x*4
		px := [4]uint8{img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]}
		if m, ok := matches[px]; ok {
			return m
		}
		var m bool
		switch {
		case refTransparent || px[3] == 0:
			m = refTransparent && px[3] == 0
		default:
			m = refLab.DistanceLab(toColorful(px[0], px[1], px[2])) <= tolerance
		}
		matches[px] = m
		return m
	}

	visited := make([]bool, w*h)
	stack := []image.Point{seed}
	visited[seed.Y*w+seed.X] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !match(p.X, p.Y) {
			continue
		}
		cleared[p.Y*w+p.X] = true
		for _, n := range [4]image.Point{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}} {
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h || visited[n.Y*w+n.X] {
				continue
			}
			visited[n.Y*w+n.X] = true
			stack = append(stack, n)
		}
	}
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
