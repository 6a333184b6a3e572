package engine

// #region imports
import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Ray9453/apsd-engine/internal/journal"
)

// #endregion

// #region settings

type settings struct {
	modelDir string
	autoSave bool
	journal  *journal.Journal
	logger   *zerolog.Logger
	clock    func() time.Time
}

func defaultSettings() settings {
	return settings{
		modelDir: "saved_models",
		autoSave: true,
	}
}

// Option customizes engine construction.
type Option func(*settings)

// #endregion

// #region options

// WithModelDir sets the directory for persisted carrier models.
func WithModelDir(dir string) Option {
	return func(s *settings) { s.modelDir = dir }
}

// WithAutoSave controls whether each diagnosis persists the carrier model
// on completion. Default true.
func WithAutoSave(enabled bool) Option {
	return func(s *settings) { s.autoSave = enabled }
}

// WithJournal attaches a diagnosis journal. Nil (the default) disables it.
func WithJournal(j *journal.Journal) Option {
	return func(s *settings) { s.journal = j }
}

// WithLogger replaces the default stderr logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) { s.logger = &log }
}

// WithClock overrides the time source for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

// #endregion
