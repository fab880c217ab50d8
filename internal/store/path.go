package store

import (
	"fmt"
	"strings"
)

// Join builds a store path from segments, skipping empties.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("store: empty path")
	}
	segs := strings.Split(trimmed, "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("store: malformed path %q", path)
		}
	}
	return segs, nil
}

// valueAt walks a document tree. The second result is false when the path does
// not resolve.
func valueAt(root any, segs []string) (any, bool) {
	current := root
	for _, seg := range segs {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setAt overwrites the value at segs inside root, creating intermediate objects
// as needed. Returns the (possibly replaced) root.
func setAt(root map[string]any, segs []string, value any) map[string]any {
	if root == nil {
		root = make(map[string]any)
	}
	current := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := current[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			current[seg] = child
		}
		current = child
	}
	current[segs[len(segs)-1]] = value
	return root
}

// mergeAt shallow-merges fields into the object at segs. A nil field value
// removes the key, matching the merge semantics of the hosted store this
// service was built against.
func mergeAt(root map[string]any, segs []string, fields map[string]any) map[string]any {
	if root == nil {
		root = make(map[string]any)
	}
	current := root
	for _, seg := range segs {
		child, ok := current[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			current[seg] = child
		}
		current = child
	}
	for key, value := range fields {
		if value == nil {
			delete(current, key)
			continue
		}
		current[key] = value
	}
	return root
}

// removeAt deletes the value at segs. Absent paths are a no-op.
func removeAt(root map[string]any, segs []string) {
	if root == nil {
		return
	}
	current := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := current[seg].(map[string]any)
		if !ok {
			return
		}
		current = child
	}
	delete(current, segs[len(segs)-1])
}

// deepCopy isolates subscribers from later mutation of the tree.
func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = deepCopy(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = deepCopy(v)
		}
		return out
	default:
		return value
	}
}
