package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFileAtomic writes data to path through a sibling temp file and a
// rename, creating parent directories as needed.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fsys, tmpPath, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// EnsureWritableDir creates dir if needed and proves it accepts new files.
func EnsureWritableDir(fsys afero.Fs, dir string) error {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if dir == "" {
		return errors.New("directory path is empty")
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	info, err := fsys.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe, err := afero.TempFile(fsys, dir, ".perlentaucher-probe-*")
	if err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := fsys.Remove(name); err != nil {
		return fmt.Errorf("remove probe: %w", err)
	}
	return nil
}

// Exists reports whether path exists and returns its size.
func Exists(fsys afero.Fs, path string) (bool, int64, error) {
	info, err := fsys.Stat(path)
	if err == nil {
		return true, info.Size(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, 0, nil
	}
	return false, 0, err
}
