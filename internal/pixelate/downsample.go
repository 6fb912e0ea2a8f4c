package pixelate

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/ironsheep/proper-pixel-art/internal/mesh"
)

// TransparentAlpha is the alpha below which alpha-aware reduction ignores a pixel.
const TransparentAlpha = 128

// Downsample collapses every cell of m to one pixel of the result.
//
// m must partition img, whose bounds start at the origin. Without alphaAware
// a cell becomes its most frequent RGB value, fully opaque. With alphaAware
// pixels with alpha below TransparentAlpha are ignored; the cell takes the
// most frequent RGB of the rest and the largest alpha among them, or
// becomes fully transparent when nothing is left.
//
// Rows of cells are split across GOMAXPROCS workers; each worker writes
// only its own output rows.
func Downsample(img *image.NRGBA, m mesh.Mesh, alphaAware bool) *image.NRGBA {
	cols, rows := m.Cols(), m.Rows()
	out := image.NewNRGBA(image.Rect(0, 0, cols, rows))

	workers := min(runtime.GOMAXPROCS(0), rows)
	per := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < rows; start += per {
		end := min(start+per, rows)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			var c counter
			for j := start; j < end; j++ {
				for i := 0; i < cols; i++ {
					cell := m.Cell(i, j)
					var v color.NRGBA
					if alphaAware {
						v = c.cellColorAlpha(img, cell)
					} else {
						v = c.cellColor(img, cell)
					}
					out.SetNRGBA(i, j, v)
				}
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// CellColor returns the most frequent RGB value in r, fully opaque.
// Ties go to the color met first in row-major order.
func CellColor(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	var c counter
	return c.cellColor(img, r)
}

// CellColorAlpha is the alpha-aware variant of CellColor. Pixels with
// alpha below TransparentAlpha are ignored; the result carries the maximum
// alpha of the remaining pixels, or is transparent black if none remain.
func CellColorAlpha(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	var c counter
	return c.cellColorAlpha(img, r)
}

// counter is a reusable frequency table for one worker.
type counter struct {
	index  map[uint32]int
	keys   []uint32
	counts []int
}

func (c *counter) reset() {
	if c.index == nil {
		c.index = make(map[uint32]int)
	}
	clear(c.index)
	c.keys = c.keys[:0]
	c.counts = c.counts[:0]
}

func (c *counter) add(r, g, b uint8) {
	k := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if i, ok := c.index[k]; ok {
		c.counts[i]++
		return
	}
	c.index[k] = len(c.keys)
	c.keys = append(c.keys, k)
	c.counts = append(c.counts, 1)
}

// mode returns the key with the highest count, earliest first on ties.
func (c *counter) mode() (uint32, bool) {
	best := -1
	for i, n := range c.counts {
		if best < 0 || n > c.counts[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return c.keys[best], true
}

func (c *counter) cellColor(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	c.reset()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, o = x+1, o+4 {
			c.add(img.Pix[o], img.Pix[o+1], img.Pix[o+2])
		}
	}
	k, _ := c.mode()
	return color.NRGBA{uint8(k >> 16), uint8(k >> 8), uint8(k), 255}
}

func (c *counter) cellColorAlpha(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	c.reset()
	var alpha uint8
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, o = x+1, o+4 {
			a := img.Pix[o+3]
			if a < TransparentAlpha {
				continue
			}
			alpha = max(alpha, a)
			c.add(img.Pix[o], img.Pix[o+1], img.Pix[o+2])
		}
	}
	k, ok := c.mode()
	if !ok {
		return color.NRGBA{}
	}
	return color.NRGBA{uint8(k >> 16), uint8(k >> 8), uint8(k), alpha}
}
