package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/thermoscape/components"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:      SnapshotVersion,
		Seed:         42,
		Width:        3,
		Height:       1,
		NoiseBackend: "perlin",
		Order:        "snapshot",
		Tick:         12,
		Monitors: []MonitorState{
			{X: 0, Y: 0, Temperature: 75},
			{X: 1, Y: 0, Temperature: 25},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkSettled,
			Tick:        12,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Seed != snapshot.Seed {
		t.Errorf("Seed mismatch: got %d, want %d", loaded.Seed, snapshot.Seed)
	}
	if loaded.Tick != snapshot.Tick {
		t.Errorf("Tick mismatch: got %d, want %d", loaded.Tick, snapshot.Tick)
	}
	if len(loaded.Monitors) != 2 || loaded.Monitors[1].Temperature != 25 {
		t.Errorf("Monitors mismatch: got %+v", loaded.Monitors)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with bookmark
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkEquilibrium,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_equilibrium.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without bookmark
	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}

func TestEventLogKeepsRecent(t *testing.T) {
	log := NewEventLog(3)
	for i := 0; i < 5; i++ {
		log.Record(NewTickEvent(int32(i)))
	}
	log.Record(NewInjectEvent(5, components.Pt(1, 2), 10))

	recent := log.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recent))
	}
	if recent[0].Tick != 3 || recent[2].Type != EventInject {
		t.Errorf("unexpected order: %+v", recent)
	}
	if recent[2].Location != components.Pt(1, 2) {
		t.Errorf("inject location lost: %+v", recent[2])
	}
}
