// Package source abstracts the tree the submission pipeline publishes to:
// a GitHub repository, an object-store bucket, or a local directory. The
// index builder only ever lists directory entries and reads file contents.
package source

import "context"

// EntryType distinguishes directory from file entries.
type EntryType string

const (
	TypeDir  EntryType = "dir"
	TypeFile EntryType = "file"
)

// Entry is one directory entry under a listed path.
type Entry struct {
	Name string
	Type EntryType

	// DownloadURL is a directly fetchable location for file entries when
	// the backend exposes one (GitHub raw URLs). Empty otherwise.
	DownloadURL string
}

// Source lists and reads the submission tree. Implementations map their
// backend failures onto the package sentinels so callers can branch on
// the error class without knowing the backend.
type Source interface {
	// List returns the entries directly under path. A missing path yields
	// an empty listing, not an error; the crawl treats absent directories
	// as "no submissions yet".
	List(ctx context.Context, path string) ([]Entry, error)

	// Read returns the contents of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)
}
