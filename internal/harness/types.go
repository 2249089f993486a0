package harness

// TraceEvent is one entry in a scenario run's trace: a committed render
// pass or a scripted store mutation.
type TraceEvent struct {
	// Type is "render" for committed passes, otherwise the step op that
	// produced the event ("mutate", "delete", "append", "set_index",
	// "callback").
	Type string `json:"type"`

	// Component is the rendering component (render, callback).
	Component string `json:"component,omitempty"`

	// Path is the mutated store path (mutation events).
	Path string `json:"path,omitempty"`

	// Value is the mutation payload (mutation events).
	Value any `json:"value,omitempty"`

	// Output is the rendered path/value map (render events).
	Output map[string]any `json:"output,omitempty"`

	// Seq is the committed pass sequence number (render events).
	Seq int64 `json:"seq,omitempty"`

	// Token is the pass token (render events).
	Token string `json:"token,omitempty"`
}

// toMap converts the event to the shape canonical marshalling and
// trace_contains subset matching operate on. Zero fields are omitted.
func (e TraceEvent) toMap() map[string]any {
	m := map[string]any{"type": e.Type}
	if e.Component != "" {
		m["component"] = e.Component
	}
	if e.Path != "" {
		m["path"] = e.Path
	}
	if e.Value != nil {
		m["value"] = e.Value
	}
	if e.Output != nil {
		m["output"] = e.Output
	}
	if e.Seq != 0 {
		m["seq"] = e.Seq
	}
	if e.Token != "" {
		m["token"] = e.Token
	}
	return m
}

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every expect step and assertion held.
	Pass bool `json:"pass"`

	// Trace lists render passes and mutations in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expect and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Commits counts committed render passes per component.
	Commits map[string]int `json:"commits,omitempty"`

	// FinalState is the exported root after all steps ran.
	FinalState map[string]any `json:"final_state,omitempty"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Commits: make(map[string]int),
	}
}

// AddError records a failure and flips the result to failing.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
