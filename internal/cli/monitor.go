package cli

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/lawnforge/pvzloader/internal/archivebuild"
	"github.com/lawnforge/pvzloader/internal/config"
	"github.com/lawnforge/pvzloader/internal/proc"
	"github.com/lawnforge/pvzloader/internal/session"
)

var newScreen = tcell.NewScreen

func newMonitorCmd(root *rootOptions) *cobra.Command {
	var refreshInterval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor <profile>",
		Short: "Show a live view of a profile's archive records and launch state",
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
			return runMonitor(cmd.Context().Done(), store, prof, refreshInterval)
		},
	}
	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 2*time.Second, "Archive/session poll interval")
	return cmd
}

func runMonitor(done <-chan struct{}, store *config.Store, prof config.ModProfile, interval time.Duration) error {
	screen, err := newScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			switch tev := ev.(type) {
			case *tcell.EventKey:
				if tev.Key() == tcell.KeyEscape || tev.Key() == tcell.KeyCtrlC || tev.Rune() == 'q' {
					close(quit)
					return
				}
			case nil:
				return
			}
		}
	}()

	draw(screen, store, prof)
	for {
		select {
		case <-quit:
			return nil
		case <-done:
			return nil
		case <-ticker.C:
			draw(screen, store, prof)
		}
	}
}

func draw(screen tcell.Screen, store *config.Store, prof config.ModProfile) {
	screen.Clear()

	width, _ := screen.Size()
	nameWidth := width - 24
	if nameWidth < 10 {
		nameWidth = 10
	}

	y := 0
	writeRow(screen, 0, y, fmt.Sprintf("pvzloader monitor — %s", prof.Name), tcell.StyleDefault.Bold(true))
	y++

	archive, _, err := archivebuild.Build(resolveBasePak(prof), prof.AssetDirs, archivebuild.Options{})
	if err != nil {
		writeRow(screen, 0, y, fmt.Sprintf("build error: %v", err), tcell.StyleDefault.Foreground(tcell.ColorRed))
		y += 2
	} else {
		for _, r := range archive.Records {
			if y >= screenRows(screen)-2 {
				break
			}
			writeRow(screen, 0, y, recordLine(r, nameWidth), tcell.StyleDefault)
			y++
		}
		y++
	}

	recs, _ := session.List(store)
	var pid int
	var alive bool
	for _, r := range recs {
		if r.ProfileID == prof.ID {
			pid = r.Pid
			alive = proc.IsAlive(pid)
			break
		}
	}
	writeRow(screen, 0, screenRows(screen)-1, sessionStatusLine(prof.Name, resolveArchiveOut(prof), pid, alive)+"  (q to quit)", tcell.StyleDefault.Dim(true))

	screen.Show()
}

func screenRows(screen tcell.Screen) int {
	_, h := screen.Size()
	return h
}

func writeRow(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	offset := 0
	for _, ch := range s {
		screen.SetContent(x+offset, y, ch, nil, style)
		offset++
	}
}
