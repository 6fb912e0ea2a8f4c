// Package imaging provides the raster plumbing shared by the pixel-art pipeline.
//
// This package implements the image-level helpers that every pipeline stage
// leans on: decoding and caching source files, normalizing arbitrary
// image.Image values into *image.NRGBA buffers, nearest-neighbor scaling,
// PNG encoding, mesh-overlay visualization, and the diagnostics sink that
// receives intermediate snapshots.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Raster Representation
//
// Every buffer handed between stages is an *image.NRGBA whose bounds start at
// (0,0). NRGBA keeps alpha independent from the color channels, so a pixel
// that is fully transparent still carries the RGB value it had before.
// Opaque "RGB" rasters are NRGBA buffers whose alpha is 255 everywhere.
//
// # Thread Safety
//
// ImageCache and DirSink are safe for concurrent use. The remaining functions
// are stateless and never mutate their inputs.
//
// # Error Handling
//
// Functions return errors for file I/O and encoding failures. Diagnostic
// snapshot failures are logged by the sink and never reach the caller.
package imaging
