package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

const sample = `Index.PACKAGES = {"milltest" : []};`

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestOpen_LocalFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.js")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(time.Second)
	for _, loc := range []string{path, dir, "file://" + path} {
		got, err := f.Open(context.Background(), loc)
		if err != nil {
			t.Fatalf("Open(%q): %v", loc, err)
		}
		if string(got) != sample {
			t.Errorf("Open(%q) = %q", loc, got)
		}
	}
}

func TestOpen_LocalZstd(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "index.js.zst")
	if err := os.WriteFile(path, zstdBytes(t, []byte(sample)), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFetcher(time.Second).Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != sample {
		t.Errorf("got %q", got)
	}
}

func TestOpen_LocalMissing(t *testing.T) {
	t.Parallel()
	_, err := NewFetcher(time.Second).Open(context.Background(), filepath.Join(t.TempDir(), "nope.js"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpen_Remote(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/plain/index.js":
			w.Write([]byte(sample))
		case "/encoded/index.js":
			w.Header().Set("Content-Encoding", "zstd")
			w.Write(zstdBytes(t, []byte(sample)))
		case "/file/index.js.zst":
			w.Write(zstdBytes(t, []byte(sample)))
		default:
			http.Error(w, "not here", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	for _, p := range []string{"/plain/index.js", "/encoded/index.js", "/file/index.js.zst"} {
		got, err := f.Open(context.Background(), srv.URL+p)
		if err != nil {
			t.Fatalf("Open(%s): %v", p, err)
		}
		if string(got) != sample {
			t.Errorf("Open(%s) = %q", p, got)
		}
	}

	if _, err := f.Open(context.Background(), srv.URL+"/missing.js"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()
	tests := map[string]bool{
		"https://example.com/index.js": true,
		"http://localhost:8080/":       true,
		"file:///tmp/index.js":         false,
		"./target/docs":                false,
	}
	for loc, want := range tests {
		if got := IsRemote(loc); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", loc, got, want)
		}
	}
}

func TestSourceCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if HasSourceCache("mill") {
		t.Fatal("cache should start empty")
	}
	if err := SaveSourceCache([]byte(sample), "mill"); err != nil {
		t.Fatal(err)
	}
	if !HasSourceCache("mill") {
		t.Fatal("expected cache entry after save")
	}

	got, err := LoadSourceCache("mill")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != sample {
		t.Errorf("got %q", got)
	}

	if err := RemoveSourceCache("mill"); err != nil {
		t.Fatal(err)
	}
	if HasSourceCache("mill") {
		t.Error("cache entry survived removal")
	}
	// Removing twice is fine
	if err := RemoveSourceCache("mill"); err != nil {
		t.Errorf("second removal: %v", err)
	}
}

func TestSourceCachePath_Sanitized(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	p := sourceCachePath("../evil/name")
	if filepath.Dir(p) != filepath.Clean(filepath.Join(os.Getenv("XDG_CACHE_HOME"), "scaladex", "sources")) {
		t.Errorf("path escaped the cache dir: %s", p)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	f := NewFetcher(time.Second)

	fixture := filepath.Join("..", "index", "testdata", "index.js")
	res := f.Check(context.Background(), fixture)
	if !res.Valid || res.Error != "" {
		t.Fatalf("fixture should be valid: %+v", res)
	}
	if res.Packages != 3 || res.Objects != 2 || res.Members != 41 {
		t.Errorf("unexpected counts %+v", res)
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.js")
	if err := os.WriteFile(bad, []byte(`Index.PACKAGES = {"p" : [{"name" : "q.X", "shortDescription" : "", "object" : "q\/X$.html", "members_object" : [], "kind" : "object"}]};`), 0644); err != nil {
		t.Fatal(err)
	}
	res = f.Check(context.Background(), bad)
	if res.Valid || res.Error != "" || len(res.Problems) == 0 {
		t.Errorf("expected validation problems: %+v", res)
	}

	broken := filepath.Join(dir, "broken.js")
	if err := os.WriteFile(broken, []byte("not an index"), 0644); err != nil {
		t.Fatal(err)
	}
	res = f.Check(context.Background(), broken)
	if res.Valid || res.Error == "" {
		t.Errorf("expected parse error: %+v", res)
	}
}
