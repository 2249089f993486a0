package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// Event kinds. Mutation kinds replay; render events are trace-only.
const (
	KindInit     = "init"      // full canonical state, the replay baseline
	KindSet      = "set"       // set object field or array index at Path
	KindDelete   = "delete"    // delete object field at Path
	KindAppend   = "append"    // append to array at Path
	KindSetIndex = "set_index" // set array index (Path's last segment)
	KindRender   = "render"    // committed render pass (Component, PassToken)
)

// Event is one journal row.
//
// Path addresses a location in the graph as slash-separated segments from
// the root ("cart/items/0"); the empty path addresses the root itself.
// Value holds canonical JSON for kinds that carry one.
type Event struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"`
	Path      string `json:"path,omitempty"`
	Value     string `json:"value,omitempty"`
	Component string `json:"component,omitempty"`
	PassToken string `json:"pass_token,omitempty"`
}

// Append writes an event. Seq must be strictly increasing across the
// journal's lifetime; the primary key rejects duplicates.
func (j *Journal) Append(ctx context.Context, ev Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (seq, kind, path, value, component, pass_token)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		ev.Seq,
		ev.Kind,
		ev.Path,
		nullable(ev.Value),
		nullable(ev.Component),
		nullable(ev.PassToken),
	)
	if err != nil {
		return fmt.Errorf("append event seq %d: %w", ev.Seq, err)
	}
	return nil
}

// Events reads the full log in seq order.
func (j *Journal) Events(ctx context.Context) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, path, value, component, pass_token
		FROM events
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var val, comp, token sql.NullString
		if err := rows.Scan(&ev.Seq, &ev.Kind, &ev.Path, &val, &comp, &token); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Value = val.String
		ev.Component = comp.String
		ev.PassToken = token.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
