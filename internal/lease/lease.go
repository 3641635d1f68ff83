// Package lease implements a generic heartbeat-file lease, generalized
// from the teacher's patchLease/heartbeat mechanism
// (internal/cloudgate/binpatch.go): a small JSON sidecar file holding
// a pid and a last-heartbeat timestamp, refreshed on a ticker while
// held, and checked for staleness via internal/proc's liveness probe.
//
// pvzloader uses one lease per target executable to stop a second
// concurrent `run` against the same exe from stalling/injecting it
// twice while a first run is still in progress (spec §5: the
// controller has no built-in protection against two parents racing to
// CreateProcess/inject the same child).
package lease

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lawnforge/pvzloader/internal/proc"
)

const (
	version = 1

	// HeartbeatInterval is how often a held lease refreshes its file.
	HeartbeatInterval = 15 * time.Second

	// StaleAfter is how long a lease may go unrefreshed before another
	// holder may reclaim it. A lease whose owning pid is no longer alive
	// may be reclaimed at once, however recent its heartbeat.
	StaleAfter = 2 * time.Minute
)

type payload struct {
	Version       int   `json:"version"`
	PID           int   `json:"pid"`
	HeartbeatUnix int64 `json:"heartbeat_unix"`
}

// Lease is a held heartbeat file. Stop releases it and deletes the
// file; a Lease that is never stopped leaves the file behind for the
// next staleness check to reclaim, the same way an unreleased
// injector.Session leaves its child process running (spec §3).
type Lease struct {
	path string
	stop func()
}

// Path is the sidecar path: target + ".lease".
func Path(target string) string {
	return target + ".lease"
}

// Acquire checks target's lease file for a live, non-stale holder and,
// if none is found, writes a fresh lease for the current process and
// starts a background heartbeat. It returns ErrHeld if another process
// still holds an unexpired lease.
func Acquire(target string) (*Lease, error) {
	path := Path(target)

	if held, err := currentHolder(path); err != nil {
		return nil, err
	} else if held {
		return nil, ErrHeld
	}

	pid := os.Getpid()
	if pid <= 0 {
		return nil, fmt.Errorf("lease: invalid pid %d", pid)
	}
	if err := write(path, pid, time.Now()); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = write(path, pid, time.Now())
			}
		}
	}()

	return &Lease{
		path: path,
		stop: func() {
			once.Do(func() {
				close(done)
				<-stopped
			})
		},
	}, nil
}

// Stop ends the heartbeat and removes the lease file.
func (l *Lease) Stop() {
	if l == nil {
		return
	}
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
	_ = os.Remove(l.path)
}

// ErrHeld is returned by Acquire when another live, non-stale process
// already holds the lease for the target.
var ErrHeld = fmt.Errorf("lease: already held by a live process")

// currentHolder reports whether target's lease file names a pid that
// internal/proc considers alive and whose heartbeat (or file mtime, if
// newer) is within StaleAfter.
func currentHolder(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("lease: stat %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("lease: read %s: %w", path, err)
	}
	p, ok := parse(raw)
	if !ok {
		// Unparseable lease file: not treated as held, since there's no
		// pid to check liveness against; Acquire overwrites it with a
		// fresh lease.
		return false, nil
	}

	lastSeen := lastSeenAt(p, info.ModTime())
	if time.Since(lastSeen) > StaleAfter {
		return false, nil
	}
	return proc.IsAlive(p.PID), nil
}

func parse(raw []byte) (payload, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return payload{}, false
	}
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return payload{}, false
	}
	if p.Version != version || p.PID <= 0 || p.HeartbeatUnix <= 0 {
		return payload{}, false
	}
	return p, true
}

func lastSeenAt(p payload, fileModTime time.Time) time.Time {
	hb := time.Unix(p.HeartbeatUnix, 0)
	if fileModTime.After(hb) {
		return fileModTime
	}
	return hb
}

func write(path string, pid int, at time.Time) error {
	b, err := json.Marshal(payload{
		Version:       version,
		PID:           pid,
		HeartbeatUnix: at.Unix(),
	})
	if err != nil {
		return fmt.Errorf("lease: marshal: %w", err)
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}
