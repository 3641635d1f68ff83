package update

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReplaceBinaryDirectRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.WriteFile(src, []byte("new"), 0o755); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := os.WriteFile(dest, []byte("old"), 0o755); err != nil {
		t.Fatalf("write dest: %v", err)
	}

	if err := replaceBinary(src, dest); err != nil {
		t.Fatalf("replaceBinary: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("dest = %q, want %q", got, "new")
	}
}

func TestReplaceBinaryFallsBackWhenDirectRenameRefused(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.WriteFile(src, []byte("new"), 0o755); err != nil {
		t.Fatalf("write src: %v", err)
	}
	// A directory at dest makes the direct rename fail, exercising the
	// move-aside-then-install fallback the way a locked running exe would
	// on Windows.
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatalf("mkdir dest: %v", err)
	}

	if err := replaceBinary(src, dest); err != nil {
		t.Fatalf("replaceBinary: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("dest = %q, want %q", got, "new")
	}
	if _, err := os.Stat(dest + ".old"); !os.IsNotExist(err) {
		t.Fatalf("expected %s.old to be cleaned up", dest)
	}
}

func TestReplaceBinaryErrors(t *testing.T) {
	t.Run("source missing", func(t *testing.T) {
		dir := t.TempDir()
		err := replaceBinary(filepath.Join(dir, "missing"), filepath.Join(dir, "dest"))
		if err == nil {
			t.Fatalf("expected error for missing source")
		}
	})

	t.Run("dest directory missing", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src")
		if err := os.WriteFile(src, []byte("data"), 0o600); err != nil {
			t.Fatalf("write src: %v", err)
		}
		dest := filepath.Join(dir, "missing", "dest")
		if err := replaceBinary(src, dest); err == nil {
			t.Fatalf("expected error for missing dest dir")
		}
	})
}
