package pixelate

import (
	"errors"
	"fmt"

	"github.com/ironsheep/proper-pixel-art/internal/cleanup"
	"github.com/ironsheep/proper-pixel-art/internal/imaging"
	"github.com/ironsheep/proper-pixel-art/internal/palette"
)

// DefaultInitialUpscale is the upscale factor used when Config.InitialUpscale is 0.
const DefaultInitialUpscale = 2

var (
	// ErrInvalidConfig reports an out-of-range configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidImage reports a nil or zero-area input image.
	ErrInvalidImage = errors.New("invalid image")
)

// Config is a snapshot of pipeline settings. Zero values disable the
// corresponding feature, so the zero Config runs detection at the default
// upscale factor and alpha-aware downsampling with no cleanup.
type Config struct {
	// PaletteSize is the number of colors to quantize to, in [1,256].
	// 0 skips quantization and downsamples in alpha-aware mode.
	PaletteSize int

	// PaletteMethod selects the quantizer's palette-fitting algorithm.
	PaletteMethod palette.Method

	// ResultScale enlarges the final result by nearest neighbor. 0 and 1
	// leave it at one pixel per cell.
	ResultScale int

	// TransparentBackground clears the background connected to the corners.
	TransparentBackground bool

	// BackgroundTolerance is the Lab distance used by the background fill.
	// 0 selects cleanup.DefaultBackgroundTolerance.
	BackgroundTolerance float64

	// PixelWidth, when positive, skips detection and uses cells of this many
	// source pixels.
	PixelWidth int

	// InitialUpscale is the upscale factor for the first detection attempt.
	// 0 selects DefaultInitialUpscale.
	InitialUpscale int

	// RemoveWatermark erases a generator logo before detection.
	RemoveWatermark bool

	// Trim crops transparent margins from the result.
	Trim bool

	// Diagnostics receives intermediate snapshots. Nil disables them.
	Diagnostics imaging.Sink
}

// Validate reports the first out-of-range field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.PaletteSize < 0 || c.PaletteSize > palette.MaxColors:
		return fmt.Errorf("%w: palette size %d not in [1,%d] (0 disables quantization)",
			ErrInvalidConfig, c.PaletteSize, palette.MaxColors)
	case c.PaletteMethod < palette.MedianCut || c.PaletteMethod > palette.Dominant:
		return fmt.Errorf("%w: unknown palette method %d", ErrInvalidConfig, int(c.PaletteMethod))
	case c.ResultScale < 0:
		return fmt.Errorf("%w: result scale %d must be positive", ErrInvalidConfig, c.ResultScale)
	case c.PixelWidth < 0:
		return fmt.Errorf("%w: pixel width %d must be positive", ErrInvalidConfig, c.PixelWidth)
	case c.InitialUpscale < 0:
		return fmt.Errorf("%w: initial upscale %d must be positive", ErrInvalidConfig, c.InitialUpscale)
	case c.BackgroundTolerance < 0:
		return fmt.Errorf("%w: background tolerance %g must not be negative", ErrInvalidConfig, c.BackgroundTolerance)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.InitialUpscale == 0 {
		c.InitialUpscale = DefaultInitialUpscale
	}
	if c.ResultScale == 0 {
		c.ResultScale = 1
	}
	if c.BackgroundTolerance == 0 {
		c.BackgroundTolerance = cleanup.DefaultBackgroundTolerance
	}
	if c.Diagnostics == nil {
		c.Diagnostics = imaging.Discard
	}
	return c
}
