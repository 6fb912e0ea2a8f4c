// Command ppa converts generated pixel-art-style images into true pixel art.
//
// Usage:
//
//	ppa [flags] <input>
//	ppa -i sprite.png -o out/ -c 16 -t
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
	"github.com/ironsheep/proper-pixel-art/internal/palette"
	"github.com/ironsheep/proper-pixel-art/internal/pixelate"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("PIXELART_LOG_LEVEL") == "debug" {
		pixelate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	input           string
	output          string
	colors          int
	paletteMethod   string
	scale           int
	transparent     bool
	pixelWidth      int
	initialUpscale  int
	removeWatermark bool
	trim            bool
	intermediateDir string
	version         bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ppa", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.input, "input", "", "Path to the source image")
	fs.StringVar(&o.input, "i", "", "Shorthand for -input")
	fs.StringVar(&o.output, "output", ".", "Output file or directory (a directory gets <stem>_pixelated.png)")
	fs.StringVar(&o.output, "o", ".", "Shorthand for -output")
	fs.IntVar(&o.colors, "colors", 0, "Palette size 1-256; 0 keeps the source colors and alpha")
	fs.IntVar(&o.colors, "c", 0, "Shorthand for -colors")
	fs.StringVar(&o.paletteMethod, "palette-method", "mediancut", "Palette algorithm: mediancut, kmeans or dominant")
	fs.IntVar(&o.scale, "scale-result", 1, "Enlarge the result by this factor (at least 1)")
	fs.IntVar(&o.scale, "s", 1, "Shorthand for -scale-result")
	fs.BoolVar(&o.transparent, "transparent", false, "Make the background transparent")
	fs.BoolVar(&o.transparent, "t", false, "Shorthand for -transparent")
	fs.IntVar(&o.pixelWidth, "pixel-width", 0, "Logical pixel size in source pixels; 0 detects it")
	fs.IntVar(&o.pixelWidth, "w", 0, "Shorthand for -pixel-width")
	fs.IntVar(&o.initialUpscale, "initial-upscale", pixelate.DefaultInitialUpscale, "Upscale factor for the first detection attempt (at least 1)")
	fs.IntVar(&o.initialUpscale, "u", pixelate.DefaultInitialUpscale, "Shorthand for -initial-upscale")
	fs.BoolVar(&o.removeWatermark, "remove-watermark", false, "Erase a generator watermark in the bottom-right corner")
	fs.BoolVar(&o.trim, "trim", false, "Crop transparent margins from the result")
	fs.StringVar(&o.intermediateDir, "intermediate-dir", "", "Directory for intermediate snapshots")
	fs.BoolVar(&o.version, "version", false, "Print version information")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "ppa - convert generated pixel art into true pixel art")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: ppa [flags] <input>")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Environment variables:")
		fmt.Fprintln(stderr, "  PIXELART_LOG_LEVEL=debug    Enable debug logging")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.version {
		return o, nil
	}
	if o.input == "" && fs.NArg() > 0 {
		o.input = fs.Arg(0)
	}
	if o.input == "" {
		fs.Usage()
		return nil, errors.New("no input image given")
	}
	// Config treats 0 as "use the default"; on the command line it is a mistake.
	if o.scale < 1 {
		return nil, fmt.Errorf("-scale-result must be at least 1, got %d", o.scale)
	}
	if o.initialUpscale < 1 {
		return nil, fmt.Errorf("-initial-upscale must be at least 1, got %d", o.initialUpscale)
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "ppa: %v\n", err)
		return exitUsage
	}
	if o.version {
		fmt.Fprintf(stdout, "ppa %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return exitOK
	}

	method, err := palette.ParseMethod(o.paletteMethod)
	if err != nil {
		fmt.Fprintf(stderr, "ppa: %v\n", err)
		return exitUsage
	}
	cfg := pixelate.Config{
		PaletteSize:           o.colors,
		PaletteMethod:         method,
		ResultScale:           o.scale,
		TransparentBackground: o.transparent,
		PixelWidth:            o.pixelWidth,
		InitialUpscale:        o.initialUpscale,
		RemoveWatermark:       o.removeWatermark,
		Trim:                  o.trim,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "ppa: %v\n", err)
		return exitUsage
	}

	outPath := resolveOutputPath(o.input, o.output)
	if err := convert(o.input, outPath, o.intermediateDir, cfg); err != nil {
		log.Printf("conversion failed: %v", err)
		return exitError
	}
	fmt.Fprintf(stdout, "Saved pixelated image to %s\n", outPath)
	return exitOK
}

func convert(inPath, outPath, intermediateDir string, cfg pixelate.Config) error {
	img, err := imaging.Open(inPath)
	if err != nil {
		return err
	}

	if intermediateDir != "" {
		sink := imaging.NewDirSink(intermediateDir, pixelate.Logger())
		defer sink.Close()
		cfg.Diagnostics = sink
	}

	result, err := pixelate.Pixelate(img, cfg)
	if err != nil {
		return err
	}
	return imaging.SavePNG(outPath, result)
}

// resolveOutputPath maps the -output value to a file path. An existing
// directory, a trailing separator, or a name without a file extension
// selects a directory that receives <stem>_pixelated.png.
func resolveOutputPath(input, output string) string {
	if output == "" {
		output = "."
	}
	if !isDirTarget(output) {
		return output
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(output, stem+"_pixelated.png")
}

func isDirTarget(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return true
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return true
	}
	base := filepath.Base(output)
	return base == "." || base == ".." || filepath.Ext(base) == ""
}
