package cli

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/lawnforge/pvzloader/internal/pak"
)

// recordLine renders one archive record as a fixed-width table row:
// the name truncated/padded to width, then its size right-aligned.
// Pulled out of the tcell draw loop so it's testable without a real
// screen, the way the teacher's tui.go separates truncate/padRight
// from writeText.
func recordLine(r pak.Record, nameWidth int) string {
	name := truncateName(r.Name, nameWidth)
	name = padName(name, nameWidth)
	return fmt.Sprintf("%s  %10d bytes", name, len(r.Data))
}

func truncateName(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	out := make([]rune, 0, len(s))
	w := 0
	for _, ch := range s {
		cw := runewidth.RuneWidth(ch)
		if w+cw > width-1 {
			break
		}
		out = append(out, ch)
		w += cw
	}
	return string(out) + "…"
}

func padName(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	pad := make([]byte, width-w)
	for i := range pad {
		pad[i] = ' '
	}
	return s + string(pad)
}

// sessionStatusLine summarizes a recorded launch's liveness for the
// monitor's bottom status row, as "running" or "stopped".
func sessionStatusLine(profileName, archivePath string, pid int, alive bool) string {
	status := "stopped"
	if alive {
		status = "running"
	}
	return fmt.Sprintf("%s  pid=%d  %s  archive=%s", profileName, pid, status, archivePath)
}
