package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestImageFile(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.NRGBA{250, 250, 250, 255}
			if (x/8+y/8)%2 == 1 {
				c = color.NRGBA{10, 90, 10, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, "sprite.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		input  string
		output string
		want   string
	}{
		{"default directory", "art/sprite.webp", "", "sprite_pixelated.png"},
		{"dot", "sprite.png", ".", "sprite_pixelated.png"},
		{"no extension", "sprite.png", "out", filepath.Join("out", "sprite_pixelated.png")},
		{"trailing slash", "a/b/hero.jpg", "results/", filepath.Join("results", "hero_pixelated.png")},
		{"existing directory", "hero.png", dir, filepath.Join(dir, "hero_pixelated.png")},
		{"explicit file", "sprite.png", "out/result.png", "out/result.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveOutputPath(tt.input, tt.output); got != tt.want {
				t.Errorf("resolveOutputPath(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
			}
		})
	}
}

func TestRun_Converts(t *testing.T) {
	dir := t.TempDir()
	input := createTestImageFile(t, dir)
	outDir := filepath.Join(dir, "nested", "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", "2", "-s", "2", "-o", outDir, input}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	outPath := filepath.Join(outDir, "sprite_pixelated.png")
	if !strings.Contains(stdout.String(), outPath) {
		t.Errorf("stdout = %q, want it to name %s", stdout.String(), outPath)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("output size = %v, want 8x8 (4x4 cells scaled by 2)", b)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	input := createTestImageFile(t, dir)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"-version"}, exitOK},
		{"help", []string{"-h"}, exitOK},
		{"no input", []string{}, exitUsage},
		{"unknown flag", []string{"-bogus", input}, exitUsage},
		{"palette too large", []string{"-c", "999", input}, exitUsage},
		{"negative scale", []string{"-s", "-1", input}, exitUsage},
		{"zero scale", []string{"-s", "0", input}, exitUsage},
		{"zero scale long flag", []string{"-scale-result", "0", input}, exitUsage},
		{"zero upscale", []string{"-u", "0", input}, exitUsage},
		{"negative upscale", []string{"-initial-upscale", "-3", input}, exitUsage},
		{"unknown palette method", []string{"-palette-method", "octree", input}, exitUsage},
		{"missing file", []string{"-o", dir, filepath.Join(dir, "missing.png")}, exitError},
		{"pixel width too large", []string{"-w", "64", "-o", dir, input}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("exit code = %d, want %d (stderr: %s)", got, tt.want, stderr.String())
			}
		})
	}
}

func TestRun_IntermediateDir(t *testing.T) {
	dir := t.TempDir()
	input := createTestImageFile(t, dir)
	snapDir := filepath.Join(dir, "steps")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-i", input, "-o", filepath.Join(dir, "out.png"), "-c", "2", "-intermediate-dir", snapDir}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	entries, err := os.ReadDir(snapDir)
	if err != nil {
		t.Fatalf("snapshot dir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("no intermediate snapshots written")
	}
}
