package telemetry

import (
	"context"
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkRecovery        BookmarkType = "population_recovery"
	BookmarkStableEcosystem BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int          `csv:"tick" json:"tick"`
	Species     string       `csv:"species" json:"species,omitempty"` // empty for whole-field bookmarks
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	level := slog.LevelInfo
	if b.Type == BookmarkExtinction {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"species", b.Species,
		"description", b.Description,
	)
}

// speciesTrack is the per-species state of the detector.
type speciesTrack struct {
	recentMin  int // minimum non-zero count since the last recovery
	recentPeak int // peak count since the last crash
	extinct    bool
}

// BookmarkDetector detects interesting moments in the census.
type BookmarkDetector struct {
	// Rolling history of per-species counts (circular buffer)
	history     [][]int
	historySize int
	historyIdx  int
	historyFull bool

	tracks             []speciesTrack
	stableWindowsCount int // consecutive windows with stable populations
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([][]int, historySize),
		historySize: historySize,
	}
}

// Check analyzes one window of census rows (one per species, in species
// order) and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(rows []SpeciesStats) []Bookmark {
	if len(rows) == 0 {
		return nil
	}
	if bd.tracks == nil {
		bd.tracks = make([]speciesTrack, len(rows))
	}
	var bookmarks []Bookmark

	for i, s := range rows {
		tr := &bd.tracks[i]
		if b := checkExtinction(tr, s); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := checkCrash(tr, s); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := checkRecovery(tr, s); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		if s.Count > 0 && (s.Count < tr.recentMin || tr.recentMin == 0) {
			tr.recentMin = s.Count
		}
		if s.Count > tr.recentPeak {
			tr.recentPeak = s.Count
		}
	}

	counts := make([]int, len(rows))
	for i, s := range rows {
		counts[i] = s.Count
	}
	bd.addToHistory(counts)

	if b := bd.checkStableEcosystem(rows); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(counts []int) {
	bd.history[bd.historyIdx] = counts
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns the last n history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) [][]int {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	if n > size {
		return nil
	}
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func checkExtinction(tr *speciesTrack, s SpeciesStats) *Bookmark {
	if s.Count > 0 {
		tr.extinct = false
		return nil
	}
	if tr.extinct || tr.recentPeak == 0 {
		return nil
	}
	tr.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        s.WindowEnd,
		Species:     s.Species,
		Description: fmt.Sprintf("%s died out (peak %d)", s.Species, tr.recentPeak),
	}
}

func checkCrash(tr *speciesTrack, s SpeciesStats) *Bookmark {
	if tr.recentPeak == 0 || s.Count == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(s.Count)/float64(tr.recentPeak)
	if dropPercent > 0.30 && s.Count < tr.recentPeak-10 {
		// Reset peak after crash
		oldPeak := tr.recentPeak
		tr.recentPeak = s.Count

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        s.WindowEnd,
			Species:     s.Species,
			Description: fmt.Sprintf("%s crashed %.0f%% from peak %d to %d", s.Species, dropPercent*100, oldPeak, s.Count),
		}
	}
	return nil
}

func checkRecovery(tr *speciesTrack, s SpeciesStats) *Bookmark {
	if tr.recentMin == 0 || tr.recentMin > 3 {
		return nil
	}

	threshold := tr.recentMin * 3
	if s.Count >= threshold && s.Count >= 6 {
		// Reset the minimum after triggering
		oldMin := tr.recentMin
		tr.recentMin = s.Count

		return &Bookmark{
			Type:        BookmarkRecovery,
			Tick:        s.WindowEnd,
			Species:     s.Species,
			Description: fmt.Sprintf("%s recovered from %d to %d", s.Species, oldMin, s.Count),
		}
	}
	return nil
}

// checkStableEcosystem fires once when every species has stayed above 10
// with a coefficient of variation below 20% for 5 consecutive windows.
func (bd *BookmarkDetector) checkStableEcosystem(rows []SpeciesStats) *Bookmark {
	for _, s := range rows {
		if s.Count < 10 {
			bd.stableWindowsCount = 0
			return nil
		}
	}

	history := bd.recent(4)
	if history == nil {
		return nil
	}

	for sp := range rows {
		var sum float64
		for _, h := range history {
			sum += float64(h[sp])
		}
		mean := sum / 4

		var variance float64
		for _, h := range history {
			d := float64(h[sp]) - mean
			variance += d * d
		}
		variance /= 4

		if variance/(mean*mean) >= 0.04 { // CV^2 < 0.04 means CV < 0.2
			bd.stableWindowsCount = 0
			return nil
		}
	}

	bd.stableWindowsCount++
	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        rows[0].WindowEnd,
			Description: fmt.Sprintf("All %d species stable over 5+ windows", len(rows)),
		}
	}
	return nil
}
