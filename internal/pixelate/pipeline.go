// Package pixelate turns generated "pixel art" into true pixel art with one
// output pixel per logical pixel.
//
// The pipeline runs these stages in order; the bracketed ones are optional:
//
//	[watermark removal] → mesh detection → [quantization] → upscale to the
//	mesh scale → per-cell reduction → [background transparency] → [trim] →
//	[result scale]
//
// Every stage allocates a fresh raster, so the caller's image is never
// modified and Pixelate is safe to call from multiple goroutines.
package pixelate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/proper-pixel-art/internal/cleanup"
	"github.com/ironsheep/proper-pixel-art/internal/imaging"
	"github.com/ironsheep/proper-pixel-art/internal/mesh"
	"github.com/ironsheep/proper-pixel-art/internal/palette"
)

// swatchTile is the side of one palette square in the palette snapshot.
const swatchTile = 16

// Output is the result of a pipeline run together with what was measured
// along the way.
type Output struct {
	Image     *image.NRGBA
	Detection *mesh.Result
	// Palette is nil when quantization was skipped.
	Palette color.Palette
}

// Pixelate runs the full pipeline on img and returns the pixel art.
func Pixelate(img image.Image, cfg Config) (*image.NRGBA, error) {
	out, err := Process(img, cfg)
	if err != nil {
		return nil, err
	}
	return out.Image, nil
}

// Process is Pixelate but also returns the detected mesh and palette.
func Process(img image.Image, cfg Config) (*Output, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	logger := Logger()
	sink := cfg.Diagnostics

	src := imaging.ToNRGBA(img)
	if cfg.RemoveWatermark {
		src = cleanup.RemoveWatermark(src)
	}

	det, err := mesh.Detect(src, mesh.Options{
		UpscaleFactor: cfg.InitialUpscale,
		PixelWidth:    cfg.PixelWidth,
		Sink:          sink,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cw, ch := det.CellSize()
	logger.Debug("mesh detected",
		"cols", det.Mesh.Cols(), "rows", det.Mesh.Rows(),
		"cell_w", cw, "cell_h", ch,
		"upscale", det.UpscaleFactor, "fallback", det.Fallback)

	alphaAware := cfg.PaletteSize == 0
	processed := src
	var pal color.Palette
	if !alphaAware {
		processed, pal, err = palette.Quantize(src, cfg.PaletteSize, palette.Options{Method: cfg.PaletteMethod})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		logger.Debug("quantized", "method", cfg.PaletteMethod.String(), "colors", len(pal))
		sink.Snapshot("quantized", processed)
		sink.Snapshot("palette", palette.Swatch(pal, swatchTile))
	}

	scaled := imaging.Upscale(processed, det.UpscaleFactor)
	result := Downsample(scaled, det.Mesh, alphaAware)
	snapshot(sink, "downsampled", result)

	if cfg.TransparentBackground {
		result = cleanup.Transparentize(result, cfg.BackgroundTolerance)
	}
	if cfg.Trim {
		result = cleanup.Trim(result)
	}
	if cfg.ResultScale > 1 {
		result = imaging.Upscale(result, cfg.ResultScale)
	}
	snapshot(sink, "result", result)

	return &Output{Image: result, Detection: det, Palette: pal}, nil
}

// snapshot hands the sink a private copy of an image the pipeline may still
// return to its caller.
func snapshot(sink imaging.Sink, stage string, img *image.NRGBA) {
	if sink == imaging.Discard {
		return
	}
	sink.Snapshot(stage, imaging.ToNRGBA(img))
}
