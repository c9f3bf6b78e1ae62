package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	userAgent = "scaladex/0.1.0"
	// maxIndexSize bounds how much of a remote index is read.
	maxIndexSize = 256 << 20
	// indexFile is the name Scaladoc gives the search index.
	indexFile = "index.js"
)

// Fetcher reads index.js sources from disk or over HTTP.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open returns the raw bytes of the index at location: a local file, a
// directory containing index.js, or an http(s) URL. Files ending in .zst
// and zstd-encoded responses are decompressed.
func (f *Fetcher) Open(ctx context.Context, location string) ([]byte, error) {
	if IsRemote(location) {
		return f.fetch(ctx, location)
	}
	return readLocal(strings.TrimPrefix(location, "file://"))
}

func readLocal(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, indexFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".zst") {
		return decompress(data)
	}
	return data, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "zstd")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, string(body))
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "zstd" || strings.HasSuffix(url, ".zst") {
		decoder, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer decoder.Close()
		body = decoder
	}

	data, err := io.ReadAll(io.LimitReader(body, maxIndexSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxIndexSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxIndexSize)
	}
	return data, nil
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing index: %w", err)
	}
	return out, nil
}
