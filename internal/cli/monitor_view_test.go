package cli

import (
	"strings"
	"testing"

	"github.com/lawnforge/pvzloader/internal/pak"
)

func TestRecordLinePadsAndShowsSize(t *testing.T) {
	line := recordLine(pak.Record{Name: "a.txt", Data: []byte{1, 2, 3}}, 20)
	if !strings.HasPrefix(line, "a.txt") {
		t.Fatalf("recordLine() = %q, want prefix %q", line, "a.txt")
	}
	if !strings.Contains(line, "3 bytes") {
		t.Fatalf("recordLine() = %q, want size 3 bytes", line)
	}
}

func TestTruncateNameAddsEllipsisWhenTooLong(t *testing.T) {
	got := truncateName("properties\\resources.xml", 10)
	if runeLen(got) > 10 {
		t.Fatalf("truncateName() = %q (width %d), want <= 10", got, runeLen(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncateName() = %q, want ellipsis suffix", got)
	}
}

func TestTruncateNameLeavesShortNamesAlone(t *testing.T) {
	got := truncateName("a.txt", 20)
	if got != "a.txt" {
		t.Fatalf("truncateName() = %q, want unchanged %q", got, "a.txt")
	}
}

func TestPadNameWidensToWidth(t *testing.T) {
	got := padName("a", 5)
	if runeLen(got) != 5 {
		t.Fatalf("padName() width = %d, want 5", runeLen(got))
	}
}

func TestSessionStatusLineReflectsLiveness(t *testing.T) {
	line := sessionStatusLine("default", "res.pak", 1234, true)
	if !strings.Contains(line, "running") || !strings.Contains(line, "1234") {
		t.Fatalf("sessionStatusLine() = %q, want running pid 1234", line)
	}

	line = sessionStatusLine("default", "res.pak", 0, false)
	if !strings.Contains(line, "stopped") {
		t.Fatalf("sessionStatusLine() = %q, want stopped", line)
	}
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
