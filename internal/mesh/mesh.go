// Package mesh locates the logical pixel grid hidden inside generated pixel art.
//
// A generated "pixel art" image renders each logical pixel as a soft block of
// many real pixels. The boundaries between those blocks form a grid, the
// mesh, which this package recovers so that every cell can later be
// collapsed to one output pixel.
//
// Detection works per axis on a 1-D edge-energy profile: for every pair of
// adjacent columns (or rows) the color differences across the whole image
// are summed. Block interiors are smooth and contribute little, block
// boundaries produce sharp maxima. The dominant spacing between salient
// maxima gives the stride; lines are laid out at that stride, phase-aligned
// to the strongest maximum, and snapped to nearby maxima.
package mesh

import (
	"fmt"
	"image"
)

// Mesh is a partition of a raster into cells.
//
// X holds the vertical line positions and Y the horizontal ones. Each list
// starts at 0, ends at the axis length, and is strictly increasing, so an
// axis has len(lines)-1 cells. A Mesh is never modified after creation.
type Mesh struct {
	X []int `json:"x"`
	Y []int `json:"y"`
}

// Cols returns the number of cells along the horizontal axis.
func (m Mesh) Cols() int { return len(m.X) - 1 }

// Rows returns the number of cells along the vertical axis.
func (m Mesh) Rows() int { return len(m.Y) - 1 }

// Cell returns the rectangle of the cell in column i and row j.
func (m Mesh) Cell(i, j int) image.Rectangle {
	return image.Rect(m.X[i], m.Y[j], m.X[i+1], m.Y[j+1])
}

// Validate reports whether m partitions a width×height raster.
func (m Mesh) Validate(width, height int) error {
	if err := validateLines(m.X, width); err != nil {
		return fmt.Errorf("x lines: %w", err)
	}
	if err := validateLines(m.Y, height); err != nil {
		return fmt.Errorf("y lines: %w", err)
	}
	return nil
}

func validateLines(lines []int, length int) error {
	if len(lines) < 2 {
		return fmt.Errorf("need at least 2 lines, got %d", len(lines))
	}
	if lines[0] != 0 {
		return fmt.Errorf("first line is %d, want 0", lines[0])
	}
	if last := lines[len(lines)-1]; last != length {
		return fmt.Errorf("last line is %d, want %d", last, length)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] <= lines[i-1] {
			return fmt.Errorf("lines not strictly increasing at index %d (%d after %d)", i, lines[i], lines[i-1])
		}
	}
	return nil
}

// Single returns the degenerate mesh that treats the whole raster as one cell.
func Single(width, height int) Mesh {
	return Mesh{X: []int{0, width}, Y: []int{0, height}}
}

// Fixed tiles a width×height raster with square cells of the given stride.
// Lines sit at every multiple of stride; the closing line is always the axis
// length, so the last cell on an axis may be partial.
func Fixed(width, height, stride int) Mesh {
	return Mesh{X: uniformLines(width, stride), Y: uniformLines(height, stride)}
}

func uniformLines(length, stride int) []int {
	if stride < 1 {
		stride = 1
	}
	lines := make([]int, 0, length/stride+2)
	for p := 0; p < length; p += stride {
		lines = append(lines, p)
	}
	return append(lines, length)
}
