package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// BuildHistoryEntry records the outcome of one archive build: the
// source content hash that produced it (pak.ContentHash of the encoded
// bytes) lets a later `run` skip rewriting the archive file when the
// freshly encoded bytes hash the same. The archive is still rebuilt
// and encoded, and libraries still injected, on every run.
type BuildHistoryEntry struct {
	ArchivePath string    `json:"archivePath"`
	ContentHash string    `json:"contentHash"`
	RecordCount int       `json:"recordCount"`
	BuiltAt     time.Time `json:"builtAt"`
	Failed      bool      `json:"failed,omitempty"`
	FailureMsg  string    `json:"failureMsg,omitempty"`
}

// BuildHistory is the on-disk structure for build_history.json.
type BuildHistory struct {
	Version int                 `json:"version"`
	Entries []BuildHistoryEntry `json:"entries"`
}

const buildHistoryVersion = 1

// BuildHistoryStore provides locked read/write access to build_history.json.
type BuildHistoryStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewBuildHistoryStore creates a store for the given config directory.
// The history file is stored at <configDir>/build_history.json.
func NewBuildHistoryStore(configDir string) (*BuildHistoryStore, error) {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(configDir, "build_history.json")
	return &BuildHistoryStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *BuildHistoryStore) Path() string { return s.path }

func (s *BuildHistoryStore) Load() (BuildHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return BuildHistory{}, fmt.Errorf("lock build history: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return s.loadUnlocked()
}

func (s *BuildHistoryStore) Update(fn func(*BuildHistory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock build history: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	h, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	if err := fn(&h); err != nil {
		return err
	}
	return s.saveUnlocked(h)
}

// IsCurrent returns true if archivePath was last built from contentHash
// and that build succeeded, meaning the archive on disk is already up
// to date.
func (s *BuildHistoryStore) IsCurrent(archivePath, contentHash string) (bool, error) {
	h, err := s.Load()
	if err != nil {
		return false, err
	}
	for _, e := range h.Entries {
		if e.ArchivePath == archivePath && e.ContentHash == contentHash && !e.Failed {
			return true, nil
		}
	}
	return false, nil
}

// Find returns the entry for archivePath, or nil if none recorded yet.
func (s *BuildHistoryStore) Find(archivePath string) (*BuildHistoryEntry, error) {
	h, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range h.Entries {
		if h.Entries[i].ArchivePath == archivePath {
			entry := h.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// Upsert inserts or updates the entry for entry.ArchivePath.
func (s *BuildHistoryStore) Upsert(entry BuildHistoryEntry) error {
	return s.Update(func(h *BuildHistory) error {
		for i := range h.Entries {
			if h.Entries[i].ArchivePath == entry.ArchivePath {
				h.Entries[i] = entry
				return nil
			}
		}
		h.Entries = append(h.Entries, entry)
		return nil
	})
}

// Remove deletes the entry for archivePath.
func (s *BuildHistoryStore) Remove(archivePath string) error {
	return s.Update(func(h *BuildHistory) error {
		filtered := h.Entries[:0]
		for _, e := range h.Entries {
			if e.ArchivePath != archivePath {
				filtered = append(filtered, e)
			}
		}
		h.Entries = filtered
		return nil
	})
}

func (s *BuildHistoryStore) loadUnlocked() (BuildHistory, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return BuildHistory{Version: buildHistoryVersion}, nil
		}
		return BuildHistory{}, fmt.Errorf("read build history: %w", err)
	}

	var h BuildHistory
	if err := json.Unmarshal(b, &h); err != nil {
		return BuildHistory{}, fmt.Errorf("parse build history: %w", err)
	}

	if h.Version == 0 {
		h.Version = buildHistoryVersion
	}

	return h, nil
}

func (s *BuildHistoryStore) saveUnlocked(h BuildHistory) error {
	if h.Version == 0 {
		h.Version = buildHistoryVersion
	}

	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build history: %w", err)
	}
	b = append(b, '\n')

	if err := atomicWriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("atomic write build history: %w", err)
	}

	return nil
}
