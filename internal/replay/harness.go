package replay

// #region imports
import (
	"fmt"

	"github.com/Ray9453/apsd-engine/internal/engine"
	"github.com/Ray9453/apsd-engine/internal/logging"
)

// #endregion

// #region types

// StepResult captures the engine output for one replayed step.
type StepResult struct {
	Step    int
	Results map[string]engine.Result
}

// Mismatch is one failed expectation.
type Mismatch struct {
	Step   int
	HoleID string
	Field  string // "status" | "phase"
	Want   string
	Got    string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps int
	TotalHoles int
	NGCount    int
	Mismatches []Mismatch
}

// #endregion

// #region run

// Run drives a fresh engine through the fixture's steps in order, checking
// expectations along the way. modelDir isolates the run's persisted state;
// auto-save is disabled so replays never touch production models.
func Run(f *Fixture, modelDir string) ([]StepResult, Summary, error) {
	eng, err := engine.New(f.Config,
		engine.WithModelDir(modelDir),
		engine.WithAutoSave(false),
		engine.WithLogger(logging.Nop()),
	)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("build replay engine: %w", err)
	}

	expectations := map[[2]string][]Expectation{}
	for _, exp := range f.Expected {
		key := [2]string{fmt.Sprint(exp.Step), exp.HoleID}
		expectations[key] = append(expectations[key], exp)
	}

	var results []StepResult
	summary := Summary{TotalSteps: len(f.Steps)}

	for i, step := range f.Steps {
		res, err := eng.Diagnose(f.CarrierID, step.Holes)
		if err != nil {
			return results, summary, fmt.Errorf("step %d: %w", i, err)
		}
		results = append(results, StepResult{Step: i, Results: res})

		for holeID, r := range res {
			summary.TotalHoles++
			if r.Status == engine.StatusNG {
				summary.NGCount++
			}
			for _, exp := range expectations[[2]string{fmt.Sprint(i), holeID}] {
				checkExpectation(eng, f.CarrierID, holeID, i, exp, r, &summary)
			}
		}
	}
	return results, summary, nil
}

func checkExpectation(eng *engine.Engine, carrierID, holeID string, step int, exp Expectation, r engine.Result, summary *Summary) {
	if exp.Status != "" && r.Status != exp.Status {
		summary.Mismatches = append(summary.Mismatches, Mismatch{
			Step: step, HoleID: holeID, Field: "status", Want: exp.Status, Got: r.Status,
		})
	}
	if exp.Phase == "" {
		return
	}
	snap, ok := eng.HoleSnapshot(carrierID, holeID)
	got := ""
	if ok {
		got = string(snap.Phase)
	}
	if got != exp.Phase {
		summary.Mismatches = append(summary.Mismatches, Mismatch{
			Step: step, HoleID: holeID, Field: "phase", Want: exp.Phase, Got: got,
		})
	}
}

// #endregion
