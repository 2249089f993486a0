package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve walks a slash-separated path from root and returns whatever lives
// there: a composite Node or a value.Value leaf. The empty path resolves to
// root itself. Missing keys, holes, out-of-range indices, and paths that
// descend through a leaf are errors.
func Resolve(root Node, path string) (any, error) {
	if path == "" {
		return root, nil
	}
	var cur any = root
	for _, seg := range strings.Split(path, "/") {
		node, ok := cur.(Node)
		if !ok {
			return nil, fmt.Errorf("path %q: segment %q descends through a leaf", path, seg)
		}
		next, err := child(node, seg)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

// ResolveNode is Resolve restricted to composite results.
func ResolveNode(root Node, path string) (Node, error) {
	v, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	node, ok := v.(Node)
	if !ok {
		return nil, fmt.Errorf("path %q: not a composite node", path)
	}
	return node, nil
}

// ResolveParent walks to the second-to-last segment and returns the parent
// node plus the final segment, for callers about to mutate that location.
func ResolveParent(root Node, path string) (Node, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("path must not be empty")
	}
	segs := strings.Split(path, "/")
	last := segs[len(segs)-1]
	parent, err := ResolveNode(root, strings.Join(segs[:len(segs)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	return parent, last, nil
}

func child(n Node, seg string) (any, error) {
	switch t := n.(type) {
	case *Object:
		v, ok := t.Get(seg)
		if !ok {
			return nil, fmt.Errorf("missing key %q", seg)
		}
		return v, nil
	case *Array:
		i, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("array index %q: %w", seg, err)
		}
		v, ok := t.Index(i)
		if !ok {
			return nil, fmt.Errorf("index %d out of range", i)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown node variant %T", n)
	}
}
