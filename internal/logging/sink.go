package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// sinkPattern matches files created by OpenSink.
const sinkPattern = "modelops-*.log"

// SinkOptions selects the destination of CLI logs.
type SinkOptions struct {
	// Target is "" for a generated file under Dir, "-" for stderr, "none"
	// to discard, or a file path. Relative paths resolve under Dir.
	Target string
	Dir    string
	// Keep prunes generated files older than this from Dir when a file is
	// opened. Zero keeps everything.
	Keep time.Duration
}

// Sink is an opened log destination.
type Sink struct {
	io.Writer
	Path string // empty unless writing to a file
	file *os.File
}

// OpenSink opens the destination selected by opts. now names generated
// files and anchors pruning.
func OpenSink(opts SinkOptions, now time.Time) (*Sink, error) {
	var path string
	switch opts.Target {
	case "none":
		return &Sink{Writer: io.Discard}, nil
	case "-":
		return &Sink{Writer: os.Stderr}, nil
	case "":
		path = filepath.Join(opts.Dir, SinkFileName(now))
	default:
		path = opts.Target
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.Dir, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if opts.Keep > 0 {
		// Pruning failures must not stop the command.
		_, _ = PruneSinkFiles(filepath.Dir(path), now.Add(-opts.Keep))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Sink{Writer: f, Path: path, file: f}, nil
}

// Close closes the underlying file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// SinkFileName returns the generated log file name for t, e.g.
// modelops-20251213T095105.123.log (UTC).
func SinkFileName(t time.Time) string {
	return "modelops-" + t.UTC().Format("20060102T150405.000") + ".log"
}

// PruneSinkFiles removes generated log files in dir last modified before
// cutoff and returns how many were removed. A missing dir is not an error.
func PruneSinkFiles(dir string, cutoff time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, sinkPattern))
	if err != nil {
		return 0, err
	}
	var (
		removed int
		errs    []error
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(m); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
