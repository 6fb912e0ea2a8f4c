package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.NRGBA) string {
	t.Helper()
	return writePNG(t, "test-image.png", createSolidImage(width, height, c))
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := createTestImage(t, 12, 7, color.NRGBA{10, 20, 30, 255})

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("dimensions = %dx%d, want 12x7", b.Dx(), b.Dy())
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("pixel = (%d,%d,%d), want (10,20,30)", r>>8, g>>8, b>>8)
	}
}

func TestOpen_Errors(t *testing.T) {
	invalid := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(invalid, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"nonexistent", "/nonexistent/path/to/image.png"},
		{"invalid data", invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.path); err == nil {
				t.Error("Open should fail")
			}
		})
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 16, 16, color.NRGBA{255, 0, 0, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}

	if _, err := cache.Load("/nonexistent/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
	if _, ok := cache.images["/nonexistent/image.png"]; ok {
		t.Error("failed load must not be cached")
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	cache := NewImageCache()
	path1 := createTestImage(t, 4, 4, color.NRGBA{255, 0, 0, 255})
	path2 := createTestImage(t, 4, 4, color.NRGBA{0, 255, 0, 255})

	for _, p := range []string{path1, path2} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(path1)
	if _, ok := cache.images[path1]; ok {
		t.Error("Evict did not remove image")
	}
	if _, ok := cache.images[path2]; !ok {
		t.Error("Evict removed the wrong image")
	}
	cache.Evict("/never/loaded.png")

	cache.Clear()
	if len(cache.images) != 0 {
		t.Errorf("Clear left %d images", len(cache.images))
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 8, 8, color.NRGBA{0, 0, 255, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	opaque := createTestImage(t, 30, 20, color.NRGBA{200, 100, 50, 255})

	translucentImg := createSolidImage(10, 10, color.NRGBA{200, 100, 50, 255})
	translucentImg.SetNRGBA(4, 4, color.NRGBA{200, 100, 50, 100})
	translucent := writePNG(t, "sprite.PNG", translucentImg)

	tests := []struct {
		name          string
		path          string
		width, height int
		hasAlpha      bool
	}{
		{"opaque", opaque, 30, 20, false},
		{"translucent pixel", translucent, 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := LoadImageInfo(NewImageCache(), tt.path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Width != tt.width || info.Height != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", info.Width, info.Height, tt.width, tt.height)
			}
			if info.Format != "png" {
				t.Errorf("format = %q, want png", info.Format)
			}
			if info.HasAlpha != tt.hasAlpha {
				t.Errorf("has_alpha = %v, want %v", info.HasAlpha, tt.hasAlpha)
			}
			if info.FileSizeBytes <= 0 {
				t.Errorf("file size = %d, want > 0", info.FileSizeBytes)
			}
		})
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	if _, err := LoadImageInfo(NewImageCache(), "/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}

// plainImage hides any Opaque method of the wrapped image.
type plainImage struct{ image.Image }

func TestHasTranslucentPixel(t *testing.T) {
	opaque := createSolidImage(3, 3, color.NRGBA{1, 2, 3, 255})
	translucent := createSolidImage(3, 3, color.NRGBA{1, 2, 3, 255})
	translucent.SetNRGBA(2, 2, color.NRGBA{1, 2, 3, 254})

	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"opaque", opaque, false},
		{"translucent", translucent, true},
		{"opaque pixel scan", plainImage{opaque}, false},
		{"translucent pixel scan", plainImage{translucent}, true},
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasTranslucentPixel(tt.img); got != tt.want {
				t.Errorf("hasTranslucentPixel = %v, want %v", got, tt.want)
			}
		})
	}
}
