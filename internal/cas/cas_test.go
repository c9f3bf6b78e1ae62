package cas

import (
	"errors"
	"os"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	content := []byte(`Index.PACKAGES = {"milltest" : []};`)
	hash, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash != Hash(content) {
		t.Fatalf("Write returned %s, Hash says %s", hash, Hash(content))
	}
	if !Has(hash) {
		t.Error("expected Has=true after Write")
	}

	got, err := Read(hash)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestWrite_Dedup(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	content := []byte("duplicate content")
	hash1, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
}

func TestWrite_DifferentContent(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hash1, err := Write([]byte("content A"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := Write([]byte("content B"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hashes")
	}
}

func TestRead_MissingHash(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	_, err := Read("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected error for missing hash")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
	if Has("0000000000000000000000000000000000000000000000000000000000000000") {
		t.Error("Has reported a missing hash")
	}
}

func TestRead_Corrupt(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hash, err := Write([]byte("original"))
	if err != nil {
		t.Fatal(err)
	}
	other, err := Write([]byte("tampered"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(path(other), path(hash)); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(hash); err == nil {
		t.Fatal("expected corruption error")
	}
}

func TestRead_ShortHash(t *testing.T) {
	t.Parallel()
	if _, err := Read("ab"); err == nil {
		t.Fatal("expected error for short hash")
	}
}
