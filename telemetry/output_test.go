package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/thermoscape/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteTicks(WindowStats{}); err != nil {
		t.Errorf("nil WriteTicks: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteTicks(WindowStats{WindowEndTick: int32(i * 10), TotalHeat: 100}); err != nil {
			t.Fatalf("WriteTicks: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Tick: 20, Description: "done"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteZones([]ZoneRow{{Mode: "zoning", ID: 0, Cells: 4, Monitors: 4}}); err != nil {
		t.Fatalf("WriteZones: %v", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("unexpected header %q", lines[0])
	}

	for _, name := range []string{"perf.csv", "bookmarks.csv", "zones.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
