package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnforge/pvzloader/internal/archivebuild"
	"github.com/lawnforge/pvzloader/internal/config"
	"github.com/lawnforge/pvzloader/internal/ids"
	"github.com/lawnforge/pvzloader/internal/injector"
	"github.com/lawnforge/pvzloader/internal/lease"
	"github.com/lawnforge/pvzloader/internal/pak"
	"github.com/lawnforge/pvzloader/internal/session"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <profile>",
		Short: "Build the mod archive, launch the game stalled, inject libraries, and release it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}
			cfg, err := store.Load()
			if err != nil {
				return err
			}
			prof, ok := cfg.FindProfile(args[0])
			if !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			return runProfile(cmd, store, prof)
		},
	}
	return cmd
}

// resolveBasePak returns prof.BasePak if set, otherwise "main.pak" next
// to prof.GameExe, matching the original driver's implicit default.
func resolveBasePak(prof config.ModProfile) string {
	if prof.BasePak != "" {
		return prof.BasePak
	}
	return filepath.Join(filepath.Dir(prof.GameExe), "main.pak")
}

// resolveArchiveOut anchors a relative ArchiveOut to the game's own
// directory, since that's the child's working directory once
// launchStalled sets it (the game opens its archive by a bare
// relative filename, per spec §4.2's ABI assumptions).
func resolveArchiveOut(prof config.ModProfile) string {
	if filepath.IsAbs(prof.ArchiveOut) {
		return prof.ArchiveOut
	}
	return filepath.Join(filepath.Dir(prof.GameExe), prof.ArchiveOut)
}

func runProfile(cmd *cobra.Command, store *config.Store, prof config.ModProfile) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	held, err := lease.Acquire(prof.GameExe)
	if err != nil {
		return fmt.Errorf("acquire launch lease for %s: %w", prof.GameExe, err)
	}
	defer held.Stop()

	archiveOut := resolveArchiveOut(prof)
	archive, encoded, err := archivebuild.Build(resolveBasePak(prof), prof.AssetDirs, archivebuild.Options{})
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}
	contentHash := pak.ContentHash(encoded)

	history, err := config.NewBuildHistoryStore(filepath.Dir(store.Path()))
	if err != nil {
		return err
	}
	current, err := history.IsCurrent(archiveOut, contentHash)
	if err != nil {
		return err
	}
	if !current {
		if err := os.WriteFile(archiveOut, encoded, 0o644); err != nil {
			entry := config.BuildHistoryEntry{
				ArchivePath: archiveOut,
				ContentHash: contentHash,
				Failed:      true,
				FailureMsg:  err.Error(),
				BuiltAt:     time.Now(),
			}
			_ = history.Upsert(entry)
			return fmt.Errorf("write archive %s: %w", archiveOut, err)
		}
		_ = history.Upsert(config.BuildHistoryEntry{
			ArchivePath: archiveOut,
			ContentHash: contentHash,
			RecordCount: len(archive.Records),
			BuiltAt:     time.Now(),
		})
		_, _ = fmt.Fprintf(out, "Wrote %s (%d bytes)\n", archiveOut, len(encoded))
	} else {
		_, _ = fmt.Fprintf(out, "%s already up to date, skipping rewrite\n", archiveOut)
	}

	ctrl := injector.New(injector.Config{PakPointerAddress: prof.PakPointerAddress})

	sess, err := ctrl.LaunchStalled(prof.GameExe)
	if err != nil {
		return fmt.Errorf("launch %s stalled: %w", prof.GameExe, err)
	}

	for _, lib := range prof.Libraries {
		if err := ctrl.InjectLibrary(sess, lib); err != nil {
			_, _ = fmt.Fprintf(errOut, "inject %s failed: %v\n", lib, err)
		}
	}

	if err := ctrl.PatchPakfilePointer(sess, filepath.Base(archiveOut)); err != nil {
		_, _ = fmt.Fprintf(errOut, "patch pak pointer failed: %v\n", err)
	}

	if err := ctrl.Release(sess); err != nil {
		return fmt.Errorf("release %s: %w", prof.GameExe, err)
	}

	now := time.Now()
	recID, err := ids.New()
	if err != nil {
		return err
	}
	rec := config.LaunchRecord{
		ID:          recID,
		ProfileID:   prof.ID,
		Pid:         int(sess.Pid),
		ArchivePath: archiveOut,
		ArchiveHash: contentHash,
		StartedAt:   now,
		LastSeenAt:  now,
	}
	if err := session.Record(store, rec); err != nil {
		return fmt.Errorf("record session: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Launched %s (pid %d) with %s\n", prof.GameExe, sess.Pid, archiveOut)
	return nil
}
