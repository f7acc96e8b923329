// Package drive defines the file-manager view over a flat, prefix-addressed
// object store, and the interface its storage backends implement.
//
// The store has no directory entity: a "folder" is the set of keys sharing
// a common prefix ending in "/". Every listing is re-derived from the store
// on each call; nothing is cached in process.
//
// Usage:
//
//	cfg := &config.StoreConfig{AccountID: "...", AccessKey: "...", SecretKey: "..."}
//	store, err := r2.New(cfg, log)
//	if err != nil { ... }
//
//	listing, err := store.ListFolder(ctx, "docs")
package drive

import (
	"context"
	"io"
)

// Store is the single interface the gateway's route handlers depend on.
// Implementations issue their store calls sequentially; concurrent
// requests against the same prefix are not coordinated.
type Store interface {
	// ListFolder returns the immediate children of prefix: objects as
	// files and common prefixes as folder names. The prefix's own
	// sentinel object is excluded.
	ListFolder(ctx context.Context, prefix string) (*Listing, error)

	// ListFlat returns every object under prefix at full depth, with no
	// folder derivation. Zero-byte objects are filtered out as folder
	// sentinel markers.
	ListFlat(ctx context.Context, prefix string) ([]File, error)

	// Upload writes body to key in a single PUT. An existing object
	// under the same key is silently replaced.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// DeleteObject removes the object at exactly key.
	DeleteObject(ctx context.Context, key string) error

	// CreateFolder writes the zero-byte ".keep" sentinel under path so
	// that an otherwise empty folder appears in listings.
	CreateFolder(ctx context.Context, path string) error

	// DeleteFolder enumerates every object under prefix and deletes
	// them one at a time. The operation is not atomic: the returned
	// tally reports how many deletes succeeded and how many failed.
	DeleteFolder(ctx context.Context, prefix string) (Tally, error)

	// Rename moves the object at key to newKey via copy-then-delete.
	// If the copy fails the old object is left untouched. If the delete
	// fails after a successful copy, both keys hold the object and the
	// returned error names the leftover.
	Rename(ctx context.Context, key, newKey string) error

	// Move is Rename with the new key derived as destFolder plus the
	// basename of key. It returns the new key.
	Move(ctx context.Context, key, destFolder string) (string, error)

	// PublicURL returns the public download URL for key.
	PublicURL(key string) string
}

// File is the display record for one stored object.
type File struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Size      string `json:"size"`
	SizeBytes int64  `json:"sizeBytes"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	IsFolder  bool   `json:"isFolder"`
}

// Listing is one folder view: immediate child files and folder names.
type Listing struct {
	Files   []File   `json:"files"`
	Folders []string `json:"folders"`
}

// EmptyListing returns a Listing with non-nil, empty slices, so that it
// serialises as {"files":[],"folders":[]}.
func EmptyListing() *Listing {
	return &Listing{Files: []File{}, Folders: []string{}}
}

// Tally reports the outcome of a non-atomic bulk delete.
type Tally struct {
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// SentinelName is the reserved zero-byte object name that keeps an empty
// folder visible in listings.
const SentinelName = ".keep"

// NormalizePrefix appends a trailing slash to a non-empty prefix.
func NormalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix
	}
	return prefix + "/"
}

// Basename returns the final path segment of key.
func Basename(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
