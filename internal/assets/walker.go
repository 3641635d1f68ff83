// Package assets walks a mod's asset directory tree and feeds
// (archive-relative name, filetime, bytes) tuples into a caller-held
// pak.Archive, matching the directory-walker collaborator contract in
// spec §6. It is driver glue, out of scope for the spec's own
// correctness, present only so PakCodec has a realistic caller.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lawnforge/pvzloader/internal/pak"
)

// windowsEpochOffset100ns is the number of 100-nanosecond intervals
// between the Windows FILETIME epoch (1601-01-01) and the Unix epoch
// (1970-01-01).
const windowsEpochOffset100ns = 116444736000000000

// Walker discovers files under a mod's asset directory and reports
// each as a pak.Record. Concrete Walkers are deliberately unaware of
// how their records get combined into a final archive; that's
// archivebuild.Build's job, kept separate so the walk itself stays a pure filesystem
// concern.
type Walker interface {
	Walk(root string, fn func(pak.Record) error) error
}

// DirWalker walks a real filesystem directory with filepath.WalkDir.
// Record names use backslash separators regardless of host OS, since
// the archive stores paths the way the Windows game expects them
// (spec §3: "Semantically a path; separators are backslashes on
// disk").
type DirWalker struct{}

// Walk implements Walker.
func (DirWalker) Walk(root string, fn func(pak.Record) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("assets: relativize %s: %w", path, err)
		}
		name := strings.ReplaceAll(rel, string(filepath.Separator), `\`)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("assets: read %s: %w", path, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("assets: stat %s: %w", path, err)
		}

		return fn(pak.Record{
			Name:     name,
			Filetime: filetimeFromModTime(info.ModTime()),
			Data:     data,
		})
	})
}

// filetimeFromModTime encodes t as a Windows FILETIME: 100-ns ticks
// since 1601-01-01, split into little-endian low/high 32-bit halves
// (spec §9's redesign option (a)). pak.Filetime itself stays an opaque
// blob — this is the one place in the driver glue that has a reason to
// synthesize one, since it is minting a brand new record rather than
// round-tripping a decoded one.
func filetimeFromModTime(t time.Time) pak.Filetime {
	ticks := uint64(t.UTC().UnixNano()/100) + windowsEpochOffset100ns

	var ft pak.Filetime
	low := uint32(ticks)
	high := uint32(ticks >> 32)
	ft[0] = byte(low)
	ft[1] = byte(low >> 8)
	ft[2] = byte(low >> 16)
	ft[3] = byte(low >> 24)
	ft[4] = byte(high)
	ft[5] = byte(high >> 8)
	ft[6] = byte(high >> 16)
	ft[7] = byte(high >> 24)
	return ft
}
