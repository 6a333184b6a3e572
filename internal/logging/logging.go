package logging

// #region imports
import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// #endregion

// #region constructors

// New returns the engine's base logger writing structured JSON to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", "apsd").Logger()
}

// Default returns a logger on stderr at info level.
func Default() zerolog.Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}

// Nop returns a disabled logger for callers that want silence.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// #endregion
