package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Mem is an in-memory tree keyed by slash-separated file paths. It backs
// builder and engine tests without touching disk or network.
type Mem struct {
	Files map[string][]byte

	// Fail lists paths whose reads should error, simulating per-run
	// source failures.
	Fail map[string]error
}

func NewMem() *Mem {
	return &Mem{Files: map[string][]byte{}, Fail: map[string]error{}}
}

func (m *Mem) Put(path string, data []byte) {
	m.Files[strings.Trim(path, "/")] = data
}

func (m *Mem) List(_ context.Context, path string) ([]Entry, error) {
	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}
	if err, ok := m.Fail[strings.Trim(path, "/")]; ok {
		return nil, err
	}
	seen := map[string]EntryType{}
	for key := range m.Files {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			seen[rest[:i]] = TypeDir
		} else {
			seen[rest] = TypeFile
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Type: seen[name]})
	}
	return entries, nil
}

func (m *Mem) Read(_ context.Context, path string) ([]byte, error) {
	key := strings.Trim(path, "/")
	if err, ok := m.Fail[key]; ok {
		return nil, err
	}
	data, ok := m.Files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, nil
}
