package modelstore

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ray9453/apsd-engine/internal/carrier"
	"github.com/Ray9453/apsd-engine/internal/stats"
)

// #endregion

// #region errors

var (
	// ErrPersistenceError indicates a failed write or rename; the on-disk
	// model is left intact.
	ErrPersistenceError = errors.New("persistence failure")

	// ErrPersistenceCorruption indicates an unreadable or schema-mismatched
	// model file. Treated as cold start by the orchestrator.
	ErrPersistenceCorruption = errors.New("model file corrupt")
)

// #endregion

// #region schema

// SchemaVersion is the on-disk format version.
const SchemaVersion = 1

type fileModel struct {
	SchemaVersion int                 `json:"schema_version"`
	CarrierID     string              `json:"carrier_id"`
	Holes         map[string]fileHole `json:"holes"`
}

type fileHole struct {
	Phase           string                        `json:"phase"`
	DriftEventCount int                           `json:"drift_event_count"`
	RecoveryStreak  int                           `json:"recovery_streak"`
	LastUpdate      time.Time                     `json:"last_update"`
	Metrics         map[string]fileMetric         `json:"metrics"`
	GoldenBase      map[string]carrier.GoldenStat `json:"golden_base"`
}

type fileMetric struct {
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	M2     float64   `json:"M2"`
	Window []float64 `json:"window"`
}

// #endregion

// #region store

// Store persists one JSON file per carrier under a models directory, with
// atomic replace on save.
type Store struct {
	dir        string
	windowSize int
}

// NewStore creates the models directory if needed.
func NewStore(dir string, windowSize int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create models dir %s: %v", ErrPersistenceError, dir, err)
	}
	return &Store{dir: dir, windowSize: windowSize}, nil
}

// Dir returns the models directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a carrier. The ID is sanitized to
// alphanumerics, dash, and underscore to rule out path traversal.
func (s *Store) Path(carrierID string) string {
	var b strings.Builder
	for _, r := range carrierID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return filepath.Join(s.dir, b.String()+".json")
}

// #endregion

// #region save

// Save writes the full serialized model to a temp file in the same directory,
// flushes it, and renames over the target. On any failure the temp file is
// removed and the existing on-disk model is untouched.
func (s *Store) Save(m *carrier.Model) error {
	payload, err := json.MarshalIndent(toFile(m), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrPersistenceError, m.CarrierID, err)
	}

	target := s.Path(m.CarrierID)
	tmp := target + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open temp %s: %v", ErrPersistenceError, tmp, err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write temp %s: %v", ErrPersistenceError, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync temp %s: %v", ErrPersistenceError, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close temp %s: %v", ErrPersistenceError, tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrPersistenceError, target, err)
	}
	return nil
}

// #endregion

// #region load

// Load reads a carrier model. Returns (nil, nil) when no file exists. A file
// that cannot be parsed or carries the wrong schema version is copied aside
// to <name>.corrupted and reported as ErrPersistenceCorruption.
func (s *Store) Load(carrierID string) (*carrier.Model, error) {
	path := s.Path(carrierID)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistenceError, path, err)
	}

	var fm fileModel
	if err := json.Unmarshal(data, &fm); err != nil {
		s.quarantine(path, data)
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPersistenceCorruption, path, err)
	}
	if fm.SchemaVersion != SchemaVersion {
		s.quarantine(path, data)
		return nil, fmt.Errorf("%w: %s schema_version %d, want %d",
			ErrPersistenceCorruption, path, fm.SchemaVersion, SchemaVersion)
	}

	return s.fromFile(carrierID, fm), nil
}

// quarantine copies a corrupt file aside so a fresh model can be rebuilt
// without destroying the evidence.
func (s *Store) quarantine(path string, data []byte) {
	_ = os.WriteFile(path+".corrupted", data, 0o644)
}

// #endregion

// #region conversion

func toFile(m *carrier.Model) fileModel {
	fm := fileModel{
		SchemaVersion: SchemaVersion,
		CarrierID:     m.CarrierID,
		Holes:         make(map[string]fileHole, len(m.Holes)),
	}
	for holeID, h := range m.Holes {
		fh := fileHole{
			Phase:           string(h.Phase),
			DriftEventCount: h.DriftEventCount,
			RecoveryStreak:  h.RecoveryStreak,
			LastUpdate:      h.LastUpdate,
			Metrics:         make(map[string]fileMetric, len(h.Accs)),
		}
		for _, metric := range carrier.TrackedMetrics {
			acc := h.Accs[metric]
			window := make([]float64, len(acc.Window))
			copy(window, acc.Window)
			fh.Metrics[metric] = fileMetric{
				Count:  acc.Count,
				Mean:   acc.Mean,
				M2:     acc.M2,
				Window: window,
			}
		}
		if h.Golden != nil {
			fh.GoldenBase = map[string]carrier.GoldenStat(h.Golden)
		}
		fm.Holes[holeID] = fh
	}
	return fm
}

func (s *Store) fromFile(carrierID string, fm fileModel) *carrier.Model {
	m := carrier.NewModel(carrierID)
	for holeID, fh := range fm.Holes {
		h := carrier.NewHoleState(s.windowSize)
		h.Phase = carrier.Phase(fh.Phase)
		h.DriftEventCount = fh.DriftEventCount
		h.RecoveryStreak = fh.RecoveryStreak
		h.LastUpdate = fh.LastUpdate
		for _, metric := range carrier.TrackedMetrics {
			fmet, ok := fh.Metrics[metric]
			if !ok {
				continue
			}
			acc := stats.NewAccumulator(s.windowSize)
			acc.Count = fmet.Count
			acc.Mean = fmet.Mean
			acc.M2 = fmet.M2
			acc.Window = append([]float64(nil), fmet.Window...)
			acc.SetWindowSize(s.windowSize)
			h.Accs[metric] = acc
		}
		if fh.GoldenBase != nil {
			h.Golden = carrier.GoldenBase(fh.GoldenBase)
		}
		m.Holes[holeID] = h
	}
	return m
}

// #endregion
