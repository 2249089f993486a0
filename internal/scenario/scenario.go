// Package scenario defines the YAML scenario format the harness executes.
//
// A scenario declares an initial store state, the components mounted against
// it (each with the paths it reads per render), a sequence of steps driving
// mutations and flushes, and assertions over the resulting trace and final
// state. Files are validated twice: against the embedded CUE schema for
// shape and enum errors with source positions, then by a strict YAML decode
// that rejects unknown fields.
package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one declarative test case for the render bridge.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what behavior this scenario exercises.
	Description string `yaml:"description"`

	// Sync binds components with synchronous re-renders: a store mutation
	// re-renders affected components on the mutating call rather than on
	// the next flush.
	Sync bool `yaml:"sync,omitempty"`

	// State is the initial store graph, built at the root object.
	State map[string]any `yaml:"state"`

	// Components are mounted before the first step runs.
	Components []Component `yaml:"components"`

	// Steps run in order after the initial flush.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Component describes one mounted component.
//
// During each render the component reads every path in Reads through its
// wrapper (thereby subscribing to those paths) and renders a path/value map.
type Component struct {
	// Name is the component's mount name, unique within the scenario.
	Name string `yaml:"name"`

	// Reads lists the slash-separated paths read on every render.
	// The pseudo-segment "length" reads a node's length/key-set.
	// An empty list mounts a component that reads nothing.
	Reads []string `yaml:"reads"`

	// Retain names a path whose wrapper the component keeps across renders.
	// Required for stable_ref assertions and callback steps.
	Retain string `yaml:"retain,omitempty"`
}

// Step ops.
const (
	OpMutate   = "mutate"    // set value at path (object key or array index)
	OpDelete   = "delete"    // delete object key at path
	OpAppend   = "append"    // append value to array at path
	OpSetIndex = "set_index" // set array index (path's last segment)
	OpFlush    = "flush"     // drain the scheduler's dirty queue
	OpRender   = "render"    // render and commit one component immediately
	OpCallback = "callback"  // write through a component's retained wrapper
	OpExpect   = "expect"    // subset-match a component's last render output
)

// Step is one scripted action.
type Step struct {
	// Op selects the action; see the Op constants for the vocabulary.
	Op string `yaml:"op"`

	// Path addresses a store location as slash-separated segments from the
	// root (used by mutate, delete, append, set_index). For callback steps
	// the path is relative to the component's retained wrapper.
	Path string `yaml:"path,omitempty"`

	// Value is the payload for mutate, append, set_index, and callback.
	Value any `yaml:"value,omitempty"`

	// Component names the target of render, callback, and expect steps.
	Component string `yaml:"component,omitempty"`

	// Output is the expected render output for expect steps.
	// Subset match: only listed paths are checked.
	Output map[string]any `yaml:"output,omitempty"`
}

// Assertion types.
const (
	AssertRendered      = "rendered"       // component committed at least one pass
	AssertRenderCount   = "render_count"   // component committed exactly Count passes
	AssertStableRef     = "stable_ref"     // retained wrapper identical across all passes
	AssertFinalState    = "final_state"    // final exported state contains Expect (subset)
	AssertTraceContains = "trace_contains" // trace contains an event matching Event (subset)
)

// Assertion validates the trace or final state after all steps ran.
type Assertion struct {
	// Type selects the check; see the Assert constants.
	Type string `yaml:"type"`

	// Component names the component under test (rendered, render_count,
	// stable_ref).
	Component string `yaml:"component,omitempty"`

	// Count is the expected committed pass count (render_count).
	Count int `yaml:"count,omitempty"`

	// Expect holds expected final-state fields, matched as a subset against
	// the exported root (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Event holds expected trace event fields, matched as a subset against
	// each trace event until one matches (trace_contains).
	Event map[string]any `yaml:"event,omitempty"`
}

//go:embed schema.cue
var schemaCUE string

// Load reads, schema-checks, and decodes a scenario file.
// Returns a *ValidationError (with source position when available) for
// schema violations, and plain wrapped errors for I/O or YAML failures.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(path, data)
}

// Parse schema-checks and decodes scenario bytes. The filename is used only
// in error positions.
func Parse(filename string, data []byte) (*Scenario, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}

	// Strict decode catches field typos the schema's open structs allow
	// through (e.g. "assertion:" for "assertions:").
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario enforces the per-op and per-type field requirements the
// shape schema cannot express.
func validateScenario(s *Scenario) error {
	components := make(map[string]*Component, len(s.Components))
	for i := range s.Components {
		c := &s.Components[i]
		if _, dup := components[c.Name]; dup {
			return fmt.Errorf("components[%d]: duplicate name %q", i, c.Name)
		}
		components[c.Name] = c
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, components); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, components); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step, components map[string]*Component) error {
	requireComponent := func() (*Component, error) {
		if st.Component == "" {
			return nil, fmt.Errorf("steps[%d]: component is required for %s", index, st.Op)
		}
		c, ok := components[st.Component]
		if !ok {
			return nil, fmt.Errorf("steps[%d]: unknown component %q", index, st.Component)
		}
		return c, nil
	}

	switch st.Op {
	case OpMutate, OpAppend, OpSetIndex:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, st.Op)
		}
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for %s", index, st.Op)
		}
	case OpDelete:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for delete", index)
		}
	case OpFlush:
		// No fields.
	case OpRender:
		if _, err := requireComponent(); err != nil {
			return err
		}
	case OpCallback:
		c, err := requireComponent()
		if err != nil {
			return err
		}
		if c.Retain == "" {
			return fmt.Errorf("steps[%d]: callback requires component %q to declare retain", index, st.Component)
		}
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for callback", index)
		}
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for callback", index)
		}
	case OpExpect:
		if _, err := requireComponent(); err != nil {
			return err
		}
		if len(st.Output) == 0 {
			return fmt.Errorf("steps[%d]: output is required for expect", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion, components map[string]*Component) error {
	requireComponent := func() (*Component, error) {
		if a.Component == "" {
			return nil, fmt.Errorf("assertions[%d]: component is required for %s", index, a.Type)
		}
		c, ok := components[a.Component]
		if !ok {
			return nil, fmt.Errorf("assertions[%d]: unknown component %q", index, a.Component)
		}
		return c, nil
	}

	switch a.Type {
	case AssertRendered, AssertRenderCount:
		if _, err := requireComponent(); err != nil {
			return err
		}
	case AssertStableRef:
		c, err := requireComponent()
		if err != nil {
			return err
		}
		if c.Retain == "" {
			return fmt.Errorf("assertions[%d]: stable_ref requires component %q to declare retain", index, a.Component)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertTraceContains:
		if len(a.Event) == 0 {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
