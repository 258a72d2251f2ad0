package avatar

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFSStore_Release(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir)
	ctx := context.Background()

	name := "avatar-123-cat.png"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if err := store.Release(ctx, name); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("expected avatar file to be removed")
	}

	// Releasing again is a no-op.
	if err := store.Release(ctx, name); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestFSStore_Release_Placeholder(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir)

	if err := os.WriteFile(filepath.Join(dir, Placeholder), []byte("img"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if err := store.Release(context.Background(), Placeholder); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, Placeholder)); err != nil {
		t.Error("placeholder must never be removed")
	}
}

func TestFSStore_Release_RejectsPathEscape(t *testing.T) {
	store := NewFSStore(t.TempDir())

	for _, ref := range []string{"../etc/passwd", "a/b.png"} {
		if err := store.Release(context.Background(), ref); err == nil {
			t.Errorf("Release(%q) should be rejected", ref)
		}
	}
}
