package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir reads a submission tree from the local filesystem. Used by the
// index CLI against a checked-out repository and by tests.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) List(_ context.Context, path string) ([]Entry, error) {
	items, err := os.ReadDir(filepath.Join(d.root, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, mapFSErr(path, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		t := TypeFile
		if item.IsDir() {
			t = TypeDir
		}
		entries = append(entries, Entry{Name: item.Name(), Type: t})
	}
	return entries, nil
}

func (d *Dir) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, mapFSErr(path, err)
	}
	return data, nil
}

func mapFSErr(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	return fmt.Errorf("fs %s: %w", path, err)
}
