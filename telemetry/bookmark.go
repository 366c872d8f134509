package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHotspot     BookmarkType = "hotspot"
	BookmarkSettled     BookmarkType = "settled"
	BookmarkDrift       BookmarkType = "drift"
	BookmarkEquilibrium BookmarkType = "equilibrium"
)

// driftTolerance is the relative heat error tolerated before flagging drift.
const driftTolerance = 1e-6

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a diffusion run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	drifting          bool // drift bookmark already raised
	equilibriumCount  int  // consecutive windows with a flat temperature field
	lastAwake         int
	lastAwakeRecorded bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for equilibrium detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Hotspot: max temperature > 2x rolling average max
	if b := bd.checkHotspot(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Settled: every monitor went to sleep
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Drift: total heat no longer matches baseline plus injections
	if b := bd.checkDrift(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Equilibrium: near-uniform temperature over 5 windows
	if b := bd.checkEquilibrium(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.lastAwake = stats.Awake
	bd.lastAwakeRecorded = true

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkHotspot(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.TempMax
	}
	avgMax := total / float64(len(history))
	if avgMax <= 0 {
		return nil
	}

	if stats.TempMax > avgMax*2.0 && stats.TempMax > 1 {
		return &Bookmark{
			Type:        BookmarkHotspot,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Max temperature %.2f is %.1fx average (%.2f)", stats.TempMax, stats.TempMax/avgMax, avgMax),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if !bd.lastAwakeRecorded || bd.lastAwake == 0 || stats.Awake != 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("All %d monitors asleep (was %d awake)", stats.Monitors, bd.lastAwake),
	}
}

func (bd *BookmarkDetector) checkDrift(stats WindowStats) *Bookmark {
	limit := driftTolerance * math.Max(1, math.Abs(stats.TotalHeat))
	if math.Abs(stats.Drift) <= limit {
		bd.drifting = false
		return nil
	}
	if bd.drifting {
		return nil
	}
	bd.drifting = true
	return &Bookmark{
		Type:        BookmarkDrift,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Total heat %.6f drifted %.3g from expected", stats.TotalHeat, stats.Drift),
	}
}

func (bd *BookmarkDetector) checkEquilibrium(stats WindowStats) *Bookmark {
	// Need heat in the network
	if stats.Monitors == 0 || stats.TempMean <= 0 {
		bd.equilibriumCount = 0
		return nil
	}

	// Coefficient of variation under 1%
	if stats.TempStd/stats.TempMean < 0.01 {
		bd.equilibriumCount++
	} else {
		bd.equilibriumCount = 0
	}

	if bd.equilibriumCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkEquilibrium,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Temperature flat at %.3f across %d monitors over 5 windows", stats.TempMean, stats.Monitors),
		}
	}
	return nil
}
