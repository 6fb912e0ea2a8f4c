package imaging

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Sink receives intermediate snapshots from pipeline stages.
//
// Snapshot must not block the caller on I/O and must not report failures:
// a snapshot is a side effect with no bearing on the pipeline result.
// Callers hand over ownership of img and must not modify it afterwards.
type Sink interface {
	Snapshot(stage string, img image.Image)
}

// Discard is a Sink that drops every snapshot.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Snapshot(string, image.Image) {}

// DirSink writes each snapshot as a PNG file into a directory.
//
// Files are named "NNN_<stage>.png" where NNN counts snapshots taken by this
// sink, so repeated stages (such as detection retries) never write the same
// file. Writes happen on background goroutines; Close waits for
// them to finish.
type DirSink struct {
	dir    string
	logger *slog.Logger
	seq    atomic.Int64
	wg     sync.WaitGroup
}

// NewDirSink returns a sink writing into dir. The directory is created on
// the first write. A nil logger discards write failures silently.
func NewDirSink(dir string, logger *slog.Logger) *DirSink {
	return &DirSink{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (s *DirSink) Dir() string { return s.dir }

// Snapshot schedules img to be written as "<seq>_<stage>.png".
func (s *DirSink) Snapshot(stage string, img image.Image) {
	n := s.seq.Add(1)
	name := fmt.Sprintf("%03d_%s.png", n, sanitizeStage(stage))
	path := filepath.Join(s.dir, name)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := SavePNG(path, img); err != nil && s.logger != nil {
			s.logger.Warn("diagnostic snapshot not written", "path", path, "err", err)
		}
	}()
}

// Close blocks until every scheduled snapshot has been written or dropped.
func (s *DirSink) Close() error {
	s.wg.Wait()
	return nil
}

func sanitizeStage(stage string) string {
	if stage == "" {
		return "snapshot"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, stage)
}
