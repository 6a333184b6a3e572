package modelstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Ray9453/apsd-engine/internal/carrier"
	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/features"
)

const testWindow = 12

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testWindow)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func populatedModel() *carrier.Model {
	cfg := config.LearningConfig{
		ShadowThreshold: 2,
		GoldenThreshold: 4,
		WindowSize:      testWindow,
		DriftMeanFactor: 1.0,
		DriftStdFactor:  1.5,
	}
	m := carrier.NewModel("CARRIER-7")
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, holeID := range []string{"H1", "H2"} {
		h := m.Hole(holeID, testWindow)
		for i := 0; i < 6; i++ {
			v := features.Vector{
				PeakTorque:    5 + 0.2*float64(i%2),
				RigiditySlope: 0.05,
				TotalWork:     2.5,
			}
			h.Observe(v, cfg, ts)
		}
	}
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	m := populatedModel()

	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load(m.CarrierID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected model, got nil")
	}
	if !reflect.DeepEqual(m, loaded) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", m.Holes["H1"], loaded.Holes["H1"])
	}
}

func TestLoadAbsentIsNotAnError(t *testing.T) {
	s := tempStore(t)
	m, err := s.Load("NEVER-SEEN")
	if err != nil {
		t.Fatalf("absent file must not error: %v", err)
	}
	if m != nil {
		t.Fatal("absent file must return nil model")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := tempStore(t)
	path := s.Path("BROKEN")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := s.Load("BROKEN")
	if !errors.Is(err, ErrPersistenceCorruption) {
		t.Fatalf("expected ErrPersistenceCorruption, got %v", err)
	}
	if _, statErr := os.Stat(path + ".corrupted"); statErr != nil {
		t.Fatalf("corrupt file not quarantined: %v", statErr)
	}
}

func TestLoadSchemaMismatch(t *testing.T) {
	s := tempStore(t)
	path := s.Path("OLD")
	if err := os.WriteFile(path, []byte(`{"schema_version": 99, "carrier_id": "OLD", "holes": {}}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Load("OLD"); !errors.Is(err, ErrPersistenceCorruption) {
		t.Fatalf("expected ErrPersistenceCorruption, got %v", err)
	}
}

func TestSaveFailureLeavesTargetIntact(t *testing.T) {
	s := tempStore(t)
	m := populatedModel()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.ReadFile(s.Path(m.CarrierID))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Block the temp path with a non-empty directory so the write fails.
	tmp := s.Path(m.CarrierID) + ".tmp"
	if err := os.MkdirAll(filepath.Join(tmp, "x"), 0o755); err != nil {
		t.Fatalf("block: %v", err)
	}

	m.Hole("H1", testWindow).DriftEventCount = 42
	if err := s.Save(m); !errors.Is(err, ErrPersistenceError) {
		t.Fatalf("expected ErrPersistenceError, got %v", err)
	}

	after, err := os.ReadFile(s.Path(m.CarrierID))
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("target file changed after failed save")
	}
}

func TestPathSanitizesCarrierID(t *testing.T) {
	s := tempStore(t)
	p := s.Path("../evil/../../id")
	if filepath.Dir(p) != s.Dir() {
		t.Fatalf("path escaped models dir: %s", p)
	}
}

func TestSaveOverwritesPrevious(t *testing.T) {
	s := tempStore(t)
	m := populatedModel()
	if err := s.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m.Hole("H1", testWindow).DriftEventCount = 3
	if err := s.Save(m); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := s.Load(m.CarrierID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Holes["H1"].DriftEventCount != 3 {
		t.Fatalf("drift count: want 3, got %d", loaded.Holes["H1"].DriftEventCount)
	}
}

func TestWindowTrimmedToConfiguredSize(t *testing.T) {
	// A store configured with a smaller window than the saved one trims on load.
	dir := t.TempDir()
	big, err := NewStore(dir, testWindow)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	m := populatedModel()
	if err := big.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	small, err := NewStore(dir, 4)
	if err != nil {
		t.Fatalf("NewStore small: %v", err)
	}
	loaded, err := small.Load(m.CarrierID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(loaded.Holes["H1"].Accs[carrier.MetricPeakTorque].Window); got != 4 {
		t.Fatalf("window: want 4, got %d", got)
	}
}
