package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/meadow/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete field state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Depth int `json:"depth"`
	Width int `json:"width"`

	Tick int `json:"tick"`

	Species []string `json:"species"` // names in species index order

	// Current rates, indexed like Species. Escape carries the ratchet.
	Hunting []float64 `json:"hunting"`
	Escape  []float64 `json:"escape"`

	// Organisms in live-list order.
	Organisms []OrganismState `json:"organisms"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// OrganismState holds one organism's complete state.
type OrganismState struct {
	Row         int            `json:"row"`
	Col         int            `json:"col"`
	Species     uint8          `json:"species"`
	Sex         components.Sex `json:"sex"`
	Asleep      bool           `json:"asleep,omitempty"`
	Age         int            `json:"age"`
	FoodLevel   int            `json:"food_level"`
	AgeLastBred int            `json:"age_last_bred,omitempty"`
}

// NewOrganismState captures a live organism.
func NewOrganismState(loc components.Location, org *components.Organism) OrganismState {
	return OrganismState{
		Row:         loc.Row,
		Col:         loc.Col,
		Species:     org.Species,
		Sex:         org.Sex,
		Asleep:      org.Asleep,
		Age:         org.Age,
		FoodLevel:   org.FoodLevel,
		AgeLastBred: org.AgeLastBred,
	}
}

// Organism rebuilds the component the state was captured from.
func (s OrganismState) Organism() components.Organism {
	return components.Organism{
		Species:     s.Species,
		Sex:         s.Sex,
		Alive:       true,
		Asleep:      s.Asleep,
		Age:         s.Age,
		FoodLevel:   s.FoodLevel,
		AgeLastBred: s.AgeLastBred,
	}
}

// Location returns the cell the organism occupied.
func (s OrganismState) Location() components.Location {
	return components.Loc(s.Row, s.Col)
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if b := snapshot.Bookmark; b != nil {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, string(b.Type))
		if b.Species != "" {
			name += "_" + b.Species
		}
		name = strings.ReplaceAll(name, " ", "_")
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// Validate checks the parts of a snapshot that do not depend on the config.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if s.Depth <= 0 || s.Width <= 0 {
		return fmt.Errorf("snapshot field size must be positive, got %dx%d", s.Depth, s.Width)
	}
	return nil
}
