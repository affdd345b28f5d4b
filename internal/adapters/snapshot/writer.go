// Package snapshot persists the player table and the not-found side log.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

// Writer replaces the snapshot file atomically.
type Writer struct {
	path string
	log  logger.Logger
}

// NewWriter returns a writer targeting path.
func NewWriter(path string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{path: path, log: log}
}

// Path returns the snapshot location.
func (w *Writer) Path() string { return w.path }

// Encode renders records as a two-space indented JSON array. A nil slice
// encodes as [].
func Encode(records []model.PlayerRecord) ([]byte, error) {
	if records == nil {
		records = []model.PlayerRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes records into a temp file next to the target, syncs it and
// renames it over the target. On any failure the previous snapshot is kept.
func (w *Writer) Write(ctx context.Context, records []model.PlayerRecord) error {
	start := time.Now()

	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrWriteSnapshot, err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %q: %v", ErrWriteSnapshot, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrWriteSnapshot, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write temp: %v", ErrWriteSnapshot, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp: %v", ErrWriteSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", ErrWriteSnapshot, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp: %v", ErrWriteSnapshot, err)
	}

	// A cancelled run must leave the previous snapshot in place.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSnapshot, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrWriteSnapshot, err)
	}
	committed = true

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	elapsed := time.Since(start)
	metrics.RecordSnapshotWrite(elapsed.Seconds(), int64(len(data)), time.Now().Unix())
	w.log.Info(ctx, "snapshot written",
		logger.String("path", w.path),
		logger.Int("players", len(records)),
		logger.Int("bytes", len(data)),
		logger.Duration("took", elapsed),
	)
	return nil
}
