package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/drifa/tandem/internal/store"
)

// Replay rebuilds a graph from the journal: the init event's state is loaded
// into a fresh root, then every mutation event is reapplied in seq order.
// Render events are skipped (they carry no state).
//
// Returns the rebuilt root. The journal must start with an init event.
func (j *Journal) Replay(ctx context.Context) (*store.Object, error) {
	events, err := j.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return ReplayEvents(events)
}

// ReplayEvents applies a pre-read event log. See Replay.
func ReplayEvents(events []Event) (*store.Object, error) {
	if len(events) == 0 || events[0].Kind != KindInit {
		return nil, fmt.Errorf("replay: journal must start with an init event")
	}

	decoded, err := decodeJSON(events[0].Value)
	if err != nil {
		return nil, fmt.Errorf("replay: decode init state: %w", err)
	}
	initial, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("replay: init state is not an object")
	}
	g := store.New()
	root, err := g.ObjectOf(initial)
	if err != nil {
		return nil, fmt.Errorf("replay: build init state: %w", err)
	}

	for _, ev := range events[1:] {
		if err := apply(root, ev); err != nil {
			return nil, fmt.Errorf("replay seq %d: %w", ev.Seq, err)
		}
	}
	return root, nil
}

// apply reapplies one mutation event against the graph.
func apply(root *store.Object, ev Event) error {
	switch ev.Kind {
	case KindRender:
		return nil
	case KindSet, KindDelete, KindSetIndex:
		parent, last, err := store.ResolveParent(root, ev.Path)
		if err != nil {
			return err
		}
		return applyAt(parent, last, ev)
	case KindAppend:
		node, err := store.ResolveNode(root, ev.Path)
		if err != nil {
			return err
		}
		arr, ok := node.(*store.Array)
		if !ok {
			return fmt.Errorf("append: %q is not an array", ev.Path)
		}
		v, err := decodeValue(ev.Value)
		if err != nil {
			return err
		}
		return arr.Append(v)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func applyAt(parent store.Node, key string, ev Event) error {
	switch ev.Kind {
	case KindSet:
		v, err := decodeValue(ev.Value)
		if err != nil {
			return err
		}
		switch p := parent.(type) {
		case *store.Object:
			return p.Set(key, v)
		case *store.Array:
			i, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("set: array index %q: %w", key, err)
			}
			return p.SetIndex(i, v)
		}
	case KindSetIndex:
		arr, ok := parent.(*store.Array)
		if !ok {
			return fmt.Errorf("set_index: parent of %q is not an array", ev.Path)
		}
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("set_index: index %q: %w", key, err)
		}
		v, err := decodeValue(ev.Value)
		if err != nil {
			return err
		}
		return arr.SetIndex(i, v)
	case KindDelete:
		obj, ok := parent.(*store.Object)
		if !ok {
			return fmt.Errorf("delete: parent of %q is not an object", ev.Path)
		}
		obj.Delete(key)
		return nil
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

func decodeValue(raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("mutation event missing value")
	}
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// decodeJSON decodes journal JSON preserving numeric exactness: numbers come
// back as json.Number, which the graph's leaf coercion converts to Int when
// integral. Plain unmarshal would round every integer through float64 and a
// replayed state could drift from the live run's canonical bytes.
func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
