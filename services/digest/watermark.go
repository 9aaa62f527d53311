package digest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileWatermarkStore persists the highest fully-delivered post id as a
// single decimal line. reading never fails the run: an absent or corrupt
// file counts as "no watermark".
type FileWatermarkStore struct {
	Path string
}

func (s FileWatermarkStore) Load() int64 {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read watermark file, defaulting to 0", "path", s.Path, "err", err)
		}
		return 0
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || value < 0 {
		slog.Warn("watermark file is unparseable, defaulting to 0", "path", s.Path)
		return 0
	}
	return value
}

// Save overwrites the watermark atomically, a crash mid-write can never
// leave a truncated file behind.
func (s FileWatermarkStore) Save(id int64) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".watermark-*")
	if err != nil {
		return fmt.Errorf("create watermark temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.WriteString(strconv.FormatInt(id, 10) + "\n")
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close watermark temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace watermark file: %w", err)
	}
	slog.Info("watermark saved", "path", s.Path, "last_processed_id", id)
	return nil
}
