package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(nil, path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	if err := WriteFileAtomic(nil, path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != `{}` {
		t.Fatalf("overwrite mismatch: got %q", got)
	}
}

func TestEnsureWritableDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := EnsureWritableDir(fsys, "/downloads/filme"); err != nil {
		t.Fatalf("EnsureWritableDir: %v", err)
	}
	entries, err := afero.ReadDir(fsys, "/downloads/filme")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("probe not removed: %d entries", len(entries))
	}
}

func TestEnsureWritableDirRejectsReadOnly(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if err := EnsureWritableDir(fsys, "/downloads"); err == nil {
		t.Fatal("expected error for read-only filesystem")
	}
}

func TestEnsureWritableDirRejectsFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/downloads", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureWritableDir(fsys, "/downloads"); err == nil {
		t.Fatal("expected error when path is a file")
	}
}

func TestExists(t *testing.T) {
	fsys := afero.NewMemMapFs()
	ok, _, err := Exists(fsys, "/missing.mp4")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	_ = afero.WriteFile(fsys, "/film.mp4", []byte("12345"), 0o644)
	ok, size, err := Exists(fsys, "/film.mp4")
	if err != nil || !ok || size != 5 {
		t.Fatalf("Exists(film) = %v, %d, %v", ok, size, err)
	}
}
