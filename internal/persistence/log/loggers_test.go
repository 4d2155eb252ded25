package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"harvestsim.ai/internal/sim/events"
)

func readLines(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var lines []string
	for _, e := range entries {
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			t.Fatalf("zstd: %v", err)
		}
		sc := bufio.NewScanner(dec)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		err = sc.Err()
		dec.Close()
		f.Close()
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
	return lines
}

func TestEventLogger_WritesCompressedJSONL(t *testing.T) {
	runDir := t.TempDir()
	l := NewEventLogger(runDir)

	in := []events.Event{
		{Type: "tick.start", Level: events.LevelDebug, Tick: 1},
		{Type: "crop.ready", Level: events.LevelInfo, Tick: 2, Data: map[string]any{"process": "P000001"}},
	}
	for _, e := range in {
		if err := l.WriteEvent(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, filepath.Join(runDir, "events"))
	if len(lines) != 2 {
		t.Fatalf("lines: %d", len(lines))
	}
	var got events.Event
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("line json: %v", err)
	}
	if got.Type != "crop.ready" || got.Tick != 2 || got.Data["process"] != "P000001" {
		t.Fatalf("event: %+v", got)
	}
}

func TestTickLogger_AppendsAcrossReopen(t *testing.T) {
	runDir := t.TempDir()

	l := NewTickLogger(runDir)
	if err := l.WriteTick(map[string]any{"tick": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A second logger within the same hour appends to the same file as
	// independent zstd frames.
	l = NewTickLogger(runDir)
	if err := l.WriteTick(map[string]any{"tick": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, filepath.Join(runDir, "ticks"))
	if len(lines) != 2 {
		t.Fatalf("lines after reopen: %d (%v)", len(lines), lines)
	}
}
