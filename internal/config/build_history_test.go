package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestBuildHistoryStore(t *testing.T) *BuildHistoryStore {
	t.Helper()
	s, err := NewBuildHistoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBuildHistoryStore: %v", err)
	}
	return s
}

func TestBuildHistoryStore_Path(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBuildHistoryStore(dir)
	if err != nil {
		t.Fatalf("NewBuildHistoryStore: %v", err)
	}
	want := filepath.Join(dir, "build_history.json")
	if s.Path() != want {
		t.Fatalf("Path() = %q, want %q", s.Path(), want)
	}
}

func TestBuildHistoryStore_LoadEmpty(t *testing.T) {
	s := newTestBuildHistoryStore(t)
	h, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Version != buildHistoryVersion {
		t.Fatalf("Version = %d, want %d", h.Version, buildHistoryVersion)
	}
	if len(h.Entries) != 0 {
		t.Fatalf("Entries = %d, want 0", len(h.Entries))
	}
}

func TestBuildHistoryStore_LoadCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build_history.json")
	if err := os.WriteFile(path, []byte("{invalid json"), 0o600); err != nil {
		t.Fatalf("write corrupt json: %v", err)
	}
	s, err := NewBuildHistoryStore(dir)
	if err != nil {
		t.Fatalf("NewBuildHistoryStore: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt JSON")
	}
}

func TestBuildHistoryStore_UpsertFindRemove(t *testing.T) {
	s := newTestBuildHistoryStore(t)

	entry := BuildHistoryEntry{
		ArchivePath: "main1.pak",
		ContentHash: "abc123",
		RecordCount: 4,
		BuiltAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := s.Upsert(entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Find("main1.pak")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got == nil || got.ContentHash != "abc123" {
		t.Fatalf("Find = %#v", got)
	}

	entry.ContentHash = "def456"
	if err := s.Upsert(entry); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err = s.Find("main1.pak")
	if err != nil || got == nil || got.ContentHash != "def456" {
		t.Fatalf("Find after update = %#v, err=%v", got, err)
	}

	if err := s.Remove("main1.pak"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err = s.Find("main1.pak")
	if err != nil {
		t.Fatalf("Find after remove: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after remove, got %#v", got)
	}
}

func TestBuildHistoryStore_IsCurrent(t *testing.T) {
	s := newTestBuildHistoryStore(t)

	current, err := s.IsCurrent("main1.pak", "abc123")
	if err != nil {
		t.Fatalf("IsCurrent: %v", err)
	}
	if current {
		t.Fatal("expected false for unseen archive")
	}

	if err := s.Upsert(BuildHistoryEntry{ArchivePath: "main1.pak", ContentHash: "abc123"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	current, err = s.IsCurrent("main1.pak", "abc123")
	if err != nil {
		t.Fatalf("IsCurrent: %v", err)
	}
	if !current {
		t.Fatal("expected true for matching hash")
	}

	current, err = s.IsCurrent("main1.pak", "other")
	if err != nil {
		t.Fatalf("IsCurrent: %v", err)
	}
	if current {
		t.Fatal("expected false for mismatched hash")
	}

	if err := s.Upsert(BuildHistoryEntry{ArchivePath: "main2.pak", ContentHash: "zzz", Failed: true, FailureMsg: "encode error"}); err != nil {
		t.Fatalf("Upsert failed entry: %v", err)
	}
	current, err = s.IsCurrent("main2.pak", "zzz")
	if err != nil {
		t.Fatalf("IsCurrent: %v", err)
	}
	if current {
		t.Fatal("a failed build must never report as current")
	}
}

func TestBuildHistoryStore_UpdateIsSerialized(t *testing.T) {
	s := newTestBuildHistoryStore(t)
	if err := s.Update(func(h *BuildHistory) error {
		h.Entries = append(h.Entries, BuildHistoryEntry{ArchivePath: "a.pak", ContentHash: "1"})
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	h, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(h.Entries) != 1 {
		t.Fatalf("Entries = %d, want 1", len(h.Entries))
	}
}
