package engine

// #region imports
import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ray9453/apsd-engine/internal/carrier"
	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/curve"
	"github.com/Ray9453/apsd-engine/internal/features"
	"github.com/Ray9453/apsd-engine/internal/journal"
	"github.com/Ray9453/apsd-engine/internal/logging"
	"github.com/Ray9453/apsd-engine/internal/modelstore"
	"github.com/Ray9453/apsd-engine/internal/physics"
)

// #endregion

// #region engine-struct

// Engine is the diagnostic orchestrator. It owns the carrier cache, the
// configuration, and the persistence handle; there is no process-wide state.
// All operations on a given carrier's model run serially under that
// carrier's lock; distinct carriers may be diagnosed in parallel.
type Engine struct {
	cfg       config.SystemConfig
	filter    physics.CodeFilter
	extractor *features.Extractor
	store     *modelstore.Store
	journal   *journal.Journal
	log       zerolog.Logger
	autoSave  bool
	now       func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]*carrierEntry
}

// carrierEntry confines one carrier's model to a single diagnosis at a time.
type carrierEntry struct {
	mu    sync.Mutex
	model *carrier.Model
}

// #endregion

// #region constructor

// New validates the configuration and builds a fully wired engine.
// Construction aborts with config.ErrConfig on invalid values.
func New(cfg config.SystemConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Normalized()

	e := &Engine{
		cfg:       cfg,
		filter:    physics.NewCodeFilter(cfg.Codes),
		extractor: features.NewExtractor(cfg.Physics.OverflowThreshold),
		log:       logging.Default(),
		autoSave:  true,
		now:       time.Now,
		cache:     map[string]*carrierEntry{},
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	e.applySettings(s)

	store, err := modelstore.NewStore(s.modelDir, cfg.Learning.WindowSize)
	if err != nil {
		return nil, err
	}
	e.store = store

	return e, nil
}

func (e *Engine) applySettings(s settings) {
	if s.logger != nil {
		e.log = *s.logger
	}
	e.autoSave = s.autoSave
	e.journal = s.journal
	if s.clock != nil {
		e.now = s.clock
	}
}

// #endregion

// #region diagnose

// Diagnose runs the full pipeline for one carrier over a batch of hole
// curves. Holes are processed in lexicographic order so runs are
// reproducible. Per-hole failures never abort the batch; a persistence
// failure on auto-save is returned alongside the complete result map.
func (e *Engine) Diagnose(carrierID string, data map[string]curve.Curve) (map[string]Result, error) {
	sessionID := uuid.New().String()

	entry := e.carrierEntry(carrierID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	holeIDs := make([]string, 0, len(data))
	for holeID := range data {
		holeIDs = append(holeIDs, holeID)
	}
	sort.Strings(holeIDs)

	results := make(map[string]Result, len(data))
	for _, holeID := range holeIDs {
		res, outcome := e.diagnoseHole(entry.model, holeID, data[holeID])
		results[holeID] = res
		e.journalHole(sessionID, carrierID, holeID, res, outcome)
	}

	var saveErr error
	if e.autoSave {
		if saveErr = e.store.Save(entry.model); saveErr != nil {
			e.log.Error().Err(saveErr).Str("carrier", carrierID).Msg("model save failed")
		}
	}
	return results, saveErr
}

// diagnoseHole runs extract -> physics -> observe -> classify for one hole.
func (e *Engine) diagnoseHole(model *carrier.Model, holeID string, c curve.Curve) (Result, carrier.ObserveOutcome) {
	var outcome carrier.ObserveOutcome

	v, err := e.extractor.Extract(c)
	if err != nil {
		e.log.Warn().Err(err).Str("carrier", model.CarrierID).Str("hole", holeID).Msg("bad input curve")
		res := newResult(features.Vector{})
		res.HealthScore = 0
		res.addViolation(physics.Violation{ECode: physics.ECodeBadInput, RCode: physics.RCodeCheckData})
		return res, outcome
	}

	res := newResult(v)
	phys := physics.Check(v, e.cfg.Physics, e.filter)
	for _, viol := range phys.Violations {
		res.addViolation(viol)
	}

	hole := model.Hole(holeID, e.cfg.Learning.WindowSize)

	// A fatal physics violation means the curve is contaminated: report NG
	// and keep it out of the accumulators.
	if phys.Fatal {
		res.HealthScore = 0
		outcome.PhaseBefore, outcome.PhaseAfter = hole.Phase, hole.Phase
		return res, outcome
	}

	outcome = hole.Observe(v, e.cfg.Learning, e.now().UTC())
	if outcome.DriftTriggered {
		e.log.Info().Str("carrier", model.CarrierID).Str("hole", holeID).
			Int("drift_events", hole.DriftEventCount).Msg("drift detected")
	}
	if outcome.Recovered {
		e.log.Info().Str("carrier", model.CarrierID).Str("hole", holeID).Msg("drift recovered")
	}

	adaptive := hole.Classify(v, e.cfg.Tolerance, e.filter)
	for _, viol := range adaptive.Violations {
		res.addViolation(viol)
	}
	if res.Status == StatusNG {
		res.HealthScore = 0
	} else {
		res.HealthScore = adaptive.HealthScore
	}

	res.Optimization = hole.Suggest(e.cfg.Tolerance, e.cfg.Learning)
	return res, outcome
}

// #endregion

// #region carrier-cache

// carrierEntry resolves the cache entry for a carrier: shared read first,
// then exclusive insert, loading from disk on first sight. A corrupt model
// file is logged and treated as cold start.
func (e *Engine) carrierEntry(carrierID string) *carrierEntry {
	e.cacheMu.RLock()
	entry, ok := e.cache[carrierID]
	e.cacheMu.RUnlock()
	if ok {
		return entry
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if entry, ok = e.cache[carrierID]; ok {
		return entry
	}

	model, err := e.store.Load(carrierID)
	if err != nil {
		if errors.Is(err, modelstore.ErrPersistenceCorruption) {
			e.log.Warn().Err(err).Str("carrier", carrierID).Msg("corrupt model file, starting cold")
		} else {
			e.log.Error().Err(err).Str("carrier", carrierID).Msg("model load failed, starting cold")
		}
		model = nil
	}
	if model == nil {
		model = carrier.NewModel(carrierID)
	}

	entry = &carrierEntry{model: model}
	e.cache[carrierID] = entry
	return entry
}

// #endregion

// #region journal

// journalHole writes one provenance row; failures are logged, never surfaced.
func (e *Engine) journalHole(sessionID, carrierID, holeID string, res Result, outcome carrier.ObserveOutcome) {
	if e.journal == nil {
		return
	}
	err := e.journal.Record(journal.Entry{
		SessionID:  sessionID,
		CarrierID:  carrierID,
		HoleID:     holeID,
		Phase:      string(outcome.PhaseAfter),
		Status:     res.Status,
		ECodes:     res.ECodes,
		RCodes:     res.RCodes,
		DriftEvent: outcome.DriftTriggered,
		CreatedAt:  e.now().UTC(),
	})
	if err != nil {
		e.log.Warn().Err(err).Str("carrier", carrierID).Str("hole", holeID).Msg("journal write failed")
	}
}

// #endregion

// #region admin

// SaveAll persists every cached carrier model. Returns the first error.
func (e *Engine) SaveAll() error {
	e.cacheMu.RLock()
	entries := make(map[string]*carrierEntry, len(e.cache))
	for id, entry := range e.cache {
		entries[id] = entry
	}
	e.cacheMu.RUnlock()

	for id, entry := range entries {
		entry.mu.Lock()
		err := e.store.Save(entry.model)
		entry.mu.Unlock()
		if err != nil {
			e.log.Error().Err(err).Str("carrier", id).Msg("model save failed")
			return err
		}
	}
	return nil
}

// ResetHole returns one hole to cold start. Administrative operation.
func (e *Engine) ResetHole(carrierID, holeID string) error {
	entry := e.carrierEntry(carrierID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if h, ok := entry.model.Holes[holeID]; ok {
		h.Reset()
	}
	if e.autoSave {
		return e.store.Save(entry.model)
	}
	return nil
}

// ResetCarrier discards all learned state for a carrier.
func (e *Engine) ResetCarrier(carrierID string) error {
	entry := e.carrierEntry(carrierID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.model = carrier.NewModel(carrierID)
	if e.autoSave {
		return e.store.Save(entry.model)
	}
	return nil
}

// HoleSnapshot exposes a hole's learning state for introspection.
func (e *Engine) HoleSnapshot(carrierID, holeID string) (HoleSnapshot, bool) {
	entry := e.carrierEntry(carrierID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	h, ok := entry.model.Holes[holeID]
	if !ok {
		return HoleSnapshot{}, false
	}
	snap := HoleSnapshot{
		Phase:           h.Phase,
		Count:           h.Count(),
		DriftEventCount: h.DriftEventCount,
	}
	if h.Golden != nil {
		snap.GoldenBase = make(carrier.GoldenBase, len(h.Golden))
		for m, g := range h.Golden {
			snap.GoldenBase[m] = g
		}
	}
	return snap, true
}

// Config returns the normalized configuration in effect.
func (e *Engine) Config() config.SystemConfig {
	return e.cfg
}

// #endregion
