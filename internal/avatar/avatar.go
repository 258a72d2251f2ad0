// Package avatar provides the blob-store port for member avatar images.
// The ledger engine only ever deletes by reference; uploading and serving
// avatars belong to the HTTP layer.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Placeholder is the shared default avatar assigned to members created
// without an upload. It is a sentinel, not a per-member file: releasing it
// is always a no-op.
const Placeholder = "avatar_placeholder.png"

// Store releases uploaded avatar images by reference.
type Store interface {
	// Release removes the referenced image. Releasing the placeholder or an
	// already-removed reference is a no-op.
	Release(ctx context.Context, ref string) error
}

// FSStore releases avatars stored as files under a base directory.
type FSStore struct {
	dir string
}

var _ Store = (*FSStore)(nil)

// NewFSStore returns a store over the given images directory.
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

// Release removes the referenced file from the images directory.
// The placeholder and references that are already gone are tolerated.
func (s *FSStore) Release(ctx context.Context, ref string) error {
	if ref == "" || ref == Placeholder {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// References are bare file names; reject anything that escapes the
	// images directory.
	if filepath.Base(ref) != ref {
		return fmt.Errorf("invalid avatar reference: %q", ref)
	}

	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release avatar %s: %w", ref, err)
	}
	return nil
}
