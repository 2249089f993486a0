package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/drifa/tandem/internal/scenario"
	"github.com/drifa/tandem/internal/value"
)

// snapshotMap flattens a run into the canonical-JSON-ready shape stored in
// golden files: scenario name, full trace, and final state.
func snapshotMap(name string, res *Result) map[string]any {
	trace := make([]any, len(res.Trace))
	for i, ev := range res.Trace {
		trace[i] = ev.toMap()
	}
	return map[string]any{
		"scenario_name": name,
		"trace":         trace,
		"final_state":   res.FinalState,
	}
}

// CanonicalTrace serializes a run as canonical JSON: scenario name, trace,
// and final state. Byte-identical across runs of the same scenario, which
// is what golden files and the trace command rely on.
func CanonicalTrace(scenarioName string, res *Result) ([]byte, error) {
	return value.MarshalCanonical(snapshotMap(scenarioName, res))
}

// RunWithGolden executes a scenario and compares its canonical trace
// against testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *scenario.Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return nil, err
	}
	return res, AssertGolden(t, sc.Name, res)
}

// AssertGolden compares an already-obtained result against the golden file
// for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, res *Result) error {
	t.Helper()

	data, err := CanonicalTrace(scenarioName, res)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
