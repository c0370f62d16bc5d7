package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults failed: %v", err)
	}

	if cfg.World.Depth <= 0 || cfg.World.Width <= 0 {
		t.Errorf("world size not set: %dx%d", cfg.World.Depth, cfg.World.Width)
	}

	wantRoles := map[string]string{"fox": RolePredator, "rabbit": RoleGrazer, "grass": RolePlant}
	if len(cfg.Species) != len(wantRoles) {
		t.Errorf("species count = %d, want %d", len(cfg.Species), len(wantRoles))
	}
	for name, role := range wantRoles {
		idx, ok := cfg.Derived.SpeciesIndex[name]
		if !ok {
			t.Errorf("species %q missing from defaults", name)
			continue
		}
		if got := cfg.Species[idx].Role; got != role {
			t.Errorf("%s role = %q, want %q", name, got, role)
		}
	}

	// Foxes forage grass between kills so a dense meadow cannot box them in.
	fox := cfg.Species[cfg.Derived.SpeciesIndex["fox"]]
	if fox.Diet["rabbit"] == 0 || fox.Diet["grass"] == 0 {
		t.Errorf("fox diet = %v, want rabbit and grass", fox.Diet)
	}
	if fox.SleepProbability != 0 {
		t.Errorf("fox sleep probability = %v, want 0", fox.SleepProbability)
	}

	if cfg.Simulation.RecordLastBred {
		t.Error("record_last_bred should default to false")
	}
}

func TestReferenceConfig(t *testing.T) {
	cfg, err := Load("reference.yaml")
	if err != nil {
		t.Fatalf("Load reference failed: %v", err)
	}

	for _, name := range []string{"fox", "eagle", "iguana", "rabbit", "sloth", "grass"} {
		idx, ok := cfg.Derived.SpeciesIndex[name]
		if !ok {
			t.Errorf("species %q missing from reference config", name)
			continue
		}
		if cfg.Species[idx].Name != name {
			t.Errorf("index for %q points at %q", name, cfg.Species[idx].Name)
		}
	}

	fox := cfg.Species[cfg.Derived.SpeciesIndex["fox"]]
	if fox.Role != RolePredator {
		t.Errorf("fox role = %q, want %q", fox.Role, RolePredator)
	}
	if fox.Diet["rabbit"] != 9 || fox.Diet["sloth"] != 4 {
		t.Errorf("fox diet = %v, want rabbit:9 sloth:4", fox.Diet)
	}
	if fox.NewbornFood != 13 {
		t.Errorf("fox newborn food = %d, want 13", fox.NewbornFood)
	}

	iguana := cfg.Species[cfg.Derived.SpeciesIndex["iguana"]]
	if iguana.WakeAtDawn {
		t.Error("iguana should not wake at dawn")
	}
	if iguana.EscapeRatchet != 0.1 {
		t.Errorf("iguana escape ratchet = %v, want 0.1", iguana.EscapeRatchet)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("world:\n  depth: 10\n  width: 12\nsimulation:\n  night_length: 0\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.Depth != 10 || cfg.World.Width != 12 {
		t.Errorf("world = %dx%d, want 10x12", cfg.World.Depth, cfg.World.Width)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Species) != 3 {
		t.Errorf("species count = %d, want 3", len(cfg.Species))
	}
	for tick := 0; tick < 20; tick++ {
		if cfg.IsNight(tick) {
			t.Fatalf("tick %d is night with night_length 0", tick)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown role",
			yaml: "species:\n  - {name: a, role: fungus, max_age: 5, max_litter_size: 1}\n",
			want: "unknown role",
		},
		{
			name: "unknown diet species",
			yaml: "species:\n  - {name: a, role: grazer, max_age: 5, max_litter_size: 1, newborn_food: 3, diet: {b: 2}}\n",
			want: "unknown species",
		},
		{
			name: "litter size",
			yaml: "species:\n  - {name: a, role: plant, max_age: 5, max_litter_size: 0}\n",
			want: "max_litter_size",
		},
		{
			name: "probability range",
			yaml: "species:\n  - {name: a, role: plant, max_age: 5, max_litter_size: 1, breeding_probability: 1.5}\n",
			want: "breeding_probability",
		},
		{
			name: "duplicate name",
			yaml: "species:\n  - {name: a, role: plant, max_age: 5, max_litter_size: 1}\n  - {name: a, role: plant, max_age: 5, max_litter_size: 1}\n",
			want: "duplicate",
		},
		{
			name: "world size",
			yaml: "world: {depth: 0, width: 3}\n",
			want: "world",
		},
		{
			name: "creation sum",
			yaml: "species:\n  - {name: a, role: plant, max_age: 5, max_litter_size: 1, creation_probability: 0.7}\n  - {name: b, role: plant, max_age: 5, max_litter_size: 1, creation_probability: 0.7}\n",
			want: "sum",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestIsNightCycle(t *testing.T) {
	cfg, err := Parse([]byte("simulation: {day_length: 2, night_length: 1}\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []bool{false, false, true, false, false, true}
	for tick, w := range want {
		if got := cfg.IsNight(tick); got != w {
			t.Errorf("IsNight(%d) = %v, want %v", tick, got, w)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.World.Depth = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config failed: %v", err)
	}
	if loaded.World.Depth != 7 {
		t.Errorf("depth = %d, want 7", loaded.World.Depth)
	}
	if len(loaded.Species) != len(cfg.Species) {
		t.Errorf("species count = %d, want %d", len(loaded.Species), len(cfg.Species))
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if recover() == nil {
			t.Error("Cfg() did not panic before Init")
		}
	}()
	Cfg()
}
