package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jcdickinson/scaladex/internal/config"
	"github.com/klauspost/compress/zstd"
)

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func sourceCachePath(name string) string {
	return filepath.Join(config.SourceCacheDir(), unsafeNameRe.ReplaceAllString(name, "_")+".js.zst")
}

// SaveSourceCache compresses and saves the raw bytes last fetched for a source.
func SaveSourceCache(data []byte, name string) error {
	dir := config.SourceCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating source cache dir: %w", err)
	}

	f, err := os.Create(sourceCachePath(name))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadSourceCache loads and decompresses the cached bytes of a source.
func LoadSourceCache(name string) ([]byte, error) {
	f, err := os.Open(sourceCachePath(name))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing cached index: %w", err)
	}
	return data, nil
}

// HasSourceCache checks whether cached bytes exist on disk for a source.
func HasSourceCache(name string) bool {
	_, err := os.Stat(sourceCachePath(name))
	return err == nil
}

// RemoveSourceCache deletes the cached bytes of a source, if any.
func RemoveSourceCache(name string) error {
	if err := os.Remove(sourceCachePath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
