package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Hotspot(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with a mild maximum
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 25), Monitors: 10, TempMax: 5})
	}

	// Now a window with a spike (>2x average)
	bookmarks := bd.Check(WindowStats{WindowEndTick: 150, Monitors: 10, TempMax: 40})
	if !hasBookmark(bookmarks, BookmarkHotspot) {
		t.Error("expected hotspot bookmark")
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if bm := bd.Check(WindowStats{WindowEndTick: 25, Monitors: 4, Awake: 0}); hasBookmark(bm, BookmarkSettled) {
		t.Error("first window should not count as settling")
	}
	bd.Check(WindowStats{WindowEndTick: 50, Monitors: 4, Awake: 3})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 75, Monitors: 4, Awake: 0})
	if !hasBookmark(bookmarks, BookmarkSettled) {
		t.Error("expected settled bookmark")
	}
}

func TestBookmarkDetector_DriftRaisedOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if bm := bd.Check(WindowStats{TotalHeat: 100, Drift: 1e-9}); hasBookmark(bm, BookmarkDrift) {
		t.Error("rounding error should not raise drift")
	}
	if bm := bd.Check(WindowStats{TotalHeat: 100, Drift: 0.5}); !hasBookmark(bm, BookmarkDrift) {
		t.Error("expected drift bookmark")
	}
	if bm := bd.Check(WindowStats{TotalHeat: 100, Drift: 0.5}); hasBookmark(bm, BookmarkDrift) {
		t.Error("drift should only be raised once while it persists")
	}
}

func TestBookmarkDetector_Equilibrium(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 25),
			Monitors:      100,
			TempMean:      10,
			TempStd:       0.01,
		})
		if hasBookmark(bookmarks, BookmarkEquilibrium) {
			triggered++
			if i != 4 {
				t.Errorf("expected trigger at window 4, got %d", i)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("expected exactly one equilibrium bookmark, got %d", triggered)
	}
}
