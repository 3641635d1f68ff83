// Package session tracks launch records across a config.Store: which
// profile produced which running game process, and whether that
// process is still alive.
package session

import (
	"fmt"
	"time"

	"github.com/lawnforge/pvzloader/internal/config"
)

// Record persists a newly started LaunchRecord.
func Record(store *config.Store, rec config.LaunchRecord) error {
	return store.Update(func(cfg *config.Config) error {
		cfg.UpsertSession(rec)
		return nil
	})
}

// Remove deletes the launch record with the given id.
func Remove(store *config.Store, sessionID string) error {
	return store.Update(func(cfg *config.Config) error {
		cfg.RemoveSession(sessionID)
		return nil
	})
}

// Heartbeat updates LastSeenAt for the given session to mark it as
// still active. It returns an error if no session has that id.
func Heartbeat(store *config.Store, sessionID string, now time.Time) error {
	return store.Update(func(cfg *config.Config) error {
		for i := range cfg.Sessions {
			if cfg.Sessions[i].ID == sessionID {
				cfg.Sessions[i].LastSeenAt = now
				return nil
			}
		}
		return fmt.Errorf("session %q not found", sessionID)
	})
}

// List returns every recorded session, most recently started first.
func List(store *config.Store) ([]config.LaunchRecord, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	out := make([]config.LaunchRecord, len(cfg.Sessions))
	copy(out, cfg.Sessions)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
