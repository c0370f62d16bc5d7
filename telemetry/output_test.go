package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/meadow/config"
)

func TestNilOutputManagerIsNoOp(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteCensus([]SpeciesStats{{Species: "fox"}}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 1, 1); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if p, err := om.WriteSnapshot(&Snapshot{}); err != nil || p != "" {
		t.Errorf("WriteSnapshot = %q, %v", p, err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should be inert")
	}
}

func TestCensusHeaderWrittenOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for tick := 10; tick <= 30; tick += 10 {
		rows := []SpeciesStats{
			{WindowEnd: tick, Species: "fox", Count: 3},
			{WindowEnd: tick, Species: "rabbit", Count: 40},
		}
		if err := om.WriteCensus(rows); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "census.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("census.csv has %d lines, want header + 6 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,night,species,count") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header repeated")
	}
	if !strings.HasPrefix(lines[6], "30,false,rabbit,40") {
		t.Errorf("unexpected last row %q", lines[6])
	}
}

func TestOutputFilesCreated(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 40, Species: "fox"}); err != nil {
		t.Fatal(err)
	}
	if _, err := om.WriteSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 40}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"census.csv", "perf.csv", "bookmarks.csv", "config.yaml", "snapshots/snapshot_40.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if om.Dir() != dir {
		t.Errorf("Dir() = %q", om.Dir())
	}
}
