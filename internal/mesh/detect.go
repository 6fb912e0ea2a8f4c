package mesh

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
)

const (
	// MaxAttempts bounds how many upscale factors automatic detection tries.
	MaxAttempts = 3

	// maxDetectPixels caps the upscaled area any attempt may allocate. The
	// requested factor must fit; retries beyond it are skipped.
	maxDetectPixels = 1 << 26
)

// ErrInvalidOptions is returned for unusable detection options.
var ErrInvalidOptions = errors.New("invalid mesh options")

// Options controls mesh detection.
type Options struct {
	// UpscaleFactor is the nearest-neighbor factor applied to the source
	// before detection. Must be at least 1.
	UpscaleFactor int

	// PixelWidth, when positive, skips detection and tiles the source with
	// cells of this many source pixels.
	PixelWidth int

	// Sink receives a mesh overlay per attempt. Nil disables snapshots.
	Sink imaging.Sink

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Result is a detected mesh together with the scale it applies to.
//
// The mesh lines are in the coordinates of the source upscaled by
// UpscaleFactor; the caller must scale the raster it downsamples by the
// same factor.
type Result struct {
	Mesh          Mesh    `json:"mesh"`
	UpscaleFactor int     `json:"upscale_factor"`
	StrideX       float64 `json:"stride_x"`
	StrideY       float64 `json:"stride_y"`
	Attempts      int     `json:"attempts"`
	Fallback      bool    `json:"fallback"`
}

// CellSize returns the mean cell size in source pixels along each axis.
func (r *Result) CellSize() (float64, float64) {
	u := float64(r.UpscaleFactor)
	return r.StrideX / u, r.StrideY / u
}

// Detect finds the logical pixel grid of img.
//
// With Options.PixelWidth set the grid is fixed and nothing is measured.
// Otherwise each attempt upsamples the source, builds the edge-energy
// profiles and looks for a periodic stride on both axes; an axis without
// one borrows the other axis' stride. When neither axis yields a stride the
// upscale factor is raised by one and detection retried, up to MaxAttempts.
// If every attempt fails the whole image becomes a single cell; this is not
// an error.
//
// Source axes of length 1 always get the trivial line list {0, length}.
func Detect(img image.Image, opts Options) (*Result, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrInvalidOptions, w, h)
	}
	if opts.UpscaleFactor < 1 {
		return nil, fmt.Errorf("%w: upscale factor %d must be at least 1", ErrInvalidOptions, opts.UpscaleFactor)
	}
	if opts.PixelWidth < 0 {
		return nil, fmt.Errorf("%w: pixel width %d must not be negative", ErrInvalidOptions, opts.PixelWidth)
	}
	if upscaledArea(w, h, opts.UpscaleFactor) > maxDetectPixels {
		return nil, fmt.Errorf("%w: %dx%d upscaled by %d exceeds %d pixels",
			ErrInvalidOptions, w, h, opts.UpscaleFactor, maxDetectPixels)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sink := opts.Sink
	if sink == nil {
		sink = imaging.Discard
	}

	factor := opts.UpscaleFactor
	if opts.PixelWidth > 0 {
		if opts.PixelWidth > w || opts.PixelWidth > h {
			return nil, fmt.Errorf("%w: pixel width %d exceeds image size %dx%d",
				ErrInvalidOptions, opts.PixelWidth, w, h)
		}
		stride := opts.PixelWidth * factor
		m := Fixed(w*factor, h*factor, stride)
		logger.Debug("fixed mesh", "pixel_width", opts.PixelWidth, "cols", m.Cols(), "rows", m.Rows())
		if sink != imaging.Discard {
			snapshotMesh(sink, "mesh_fixed", img, factor, m, float64(stride), float64(stride))
		}
		return &Result{
			Mesh:          m,
			UpscaleFactor: factor,
			StrideX:       float64(stride),
			StrideY:       float64(stride),
		}, nil
	}

	src := imaging.ToNRGBA(img)
	attempts := 0
	for u := factor; u < factor+MaxAttempts; u++ {
		if upscaledArea(w, h, u) > maxDetectPixels {
			logger.Debug("mesh retry skipped, upscaled image too large", "factor", u)
			break
		}
		attempts++
		up := imaging.Upscale(src, u)
		m, sx, sy, ok := detectOnce(up, u, w == 1, h == 1)
		logger.Debug("mesh attempt", "attempt", attempts, "factor", u, "ok", ok,
			"stride_x", sx, "stride_y", sy, "cols", m.Cols(), "rows", m.Rows())
		if sink != imaging.Discard {
			sink.Snapshot(fmt.Sprintf("mesh_attempt%d_x%d", attempts, u),
				imaging.MeshOverlay(up, m.X, m.Y, imaging.DefaultLineColor, strideLabel(sx, sy)))
		}
		if ok {
			return &Result{Mesh: m, UpscaleFactor: u, StrideX: sx, StrideY: sy, Attempts: attempts}, nil
		}
	}

	logger.Debug("no periodic grid found, using a single cell", "attempts", attempts)
	return &Result{
		Mesh:          Single(w*factor, h*factor),
		UpscaleFactor: factor,
		StrideX:       float64(w * factor),
		StrideY:       float64(h * factor),
		Attempts:      attempts,
		Fallback:      true,
	}, nil
}

// upscaledArea is the pixel count of a w×h raster upscaled by factor.
func upscaledArea(w, h, factor int) float64 {
	f := float64(factor)
	return float64(w) * f * float64(h) * f
}

// detectOnce runs detection on a raster already upscaled by factor.
// trivialX and trivialY mark axes whose source length is a single pixel.
func detectOnce(up *image.NRGBA, factor int, trivialX, trivialY bool) (Mesh, float64, float64, bool) {
	w, h := up.Bounds().Dx(), up.Bounds().Dy()
	px, py := edgeProfiles(up)

	var fx, fy axisFit
	if !trivialX {
		fx = px.analyze(factor)
	}
	if !trivialY {
		fy = py.analyze(factor)
	}

	switch {
	case trivialX && trivialY:
		return Single(w, h), float64(w), float64(h), true
	case trivialX:
		if !fy.ok {
			return Single(w, h), 0, 0, false
		}
		return Mesh{X: []int{0, w}, Y: fy.lines(h)}, float64(w), fy.stride, true
	case trivialY:
		if !fx.ok {
			return Single(w, h), 0, 0, false
		}
		return Mesh{X: fx.lines(w), Y: []int{0, h}}, fx.stride, float64(h), true
	}

	switch {
	case !fx.ok && !fy.ok:
		return Single(w, h), 0, 0, false
	case !fx.ok:
		fx = borrow(fx, fy.stride)
	case !fy.ok:
		fy = borrow(fy, fx.stride)
	}
	return Mesh{X: fx.lines(w), Y: fy.lines(h)}, fx.stride, fy.stride, true
}

// borrow gives an axis without its own periodicity the other axis' stride.
// Logical pixels are square, so this only fails for deliberately stretched art.
func borrow(fit axisFit, stride float64) axisFit {
	fit.stride = stride
	fit.ok = true
	return fit
}

func snapshotMesh(sink imaging.Sink, stage string, img image.Image, factor int, m Mesh, sx, sy float64) {
	up := imaging.Upscale(img, factor)
	sink.Snapshot(stage, imaging.MeshOverlay(up, m.X, m.Y, imaging.DefaultLineColor, strideLabel(sx, sy)))
}

func strideLabel(sx, sy float64) string {
	return fmt.Sprintf("%d,%d", int(math.Round(sx)), int(math.Round(sy)))
}
