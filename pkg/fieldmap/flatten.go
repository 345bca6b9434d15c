// Package fieldmap converts request bodies between their nested wire form and
// the flattened, dotted-path form used while a request is being built.
//
// Wire bodies use camelCase keys. Flattened paths use snake_case segments:
//
//	{"details": {"dummySettings": {"field1": "x"}}}
//	  <=> {"details.dummy_settings.field1": "x"}
//
// Only maps are descended into. Lists are leaves and pass through verbatim in
// both directions.
package fieldmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Separator joins path segments.
const Separator = "."

// ErrPathConflict is returned by Unflatten when a key is used both as a leaf
// and as an intermediate node.
var ErrPathConflict = errors.New("path used as both leaf and parent")

// ToSnake converts a camelCase key to snake_case. Keys that are already
// snake_case are returned unchanged.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts a snake_case key to camelCase.
func ToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakePath converts every segment of a dotted path to snake_case.
func SnakePath(path string) string {
	return mapSegments(path, ToSnake)
}

// CamelPath converts every segment of a dotted path to camelCase.
func CamelPath(path string) string {
	return mapSegments(path, ToCamel)
}

func mapSegments(path string, fn func(string) string) string {
	parts := strings.Split(path, Separator)
	for i, p := range parts {
		parts[i] = fn(p)
	}
	return strings.Join(parts, Separator)
}

// Join joins path segments, skipping empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// LastSegment returns the final segment of a dotted path.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Flatten converts a nested body into a map of snake_case dotted paths.
// Empty sub-maps are kept as {} leaves so they survive a round trip.
func Flatten(nested map[string]interface{}) map[string]interface{} {
	return FlattenLeaves(nested, nil)
}

// FlattenLeaves is Flatten with the given snake_case paths kept as leaves.
// A map found at one of them is stored as is, its keys left untouched.
func FlattenLeaves(nested map[string]interface{}, leaves map[string]bool) map[string]interface{} {
	flat := make(map[string]interface{})
	flattenInto(flat, "", nested, leaves)
	return flat
}

func flattenInto(flat map[string]interface{}, prefix string, nested map[string]interface{}, leaves map[string]bool) {
	for key, value := range nested {
		path := Join(prefix, ToSnake(key))
		child, ok := value.(map[string]interface{})
		if !ok || leaves[path] {
			flat[path] = value
			continue
		}
		if len(child) == 0 {
			flat[path] = map[string]interface{}{}
			continue
		}
		flattenInto(flat, path, child, leaves)
	}
}

// Unflatten converts a flat map of dotted paths into a nested body with
// camelCase keys. Paths are applied in lexicographic order so the result is
// deterministic when a conflict is reported.
func Unflatten(flat map[string]interface{}) (map[string]interface{}, error) {
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	root := make(map[string]interface{})
	for _, path := range paths {
		if err := setPath(root, path, flat[path]); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func setPath(root map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, Separator)
	node := root
	for i, part := range parts[:len(parts)-1] {
		key := ToCamel(part)
		next, exists := node[key]
		if !exists {
			child := make(map[string]interface{})
			node[key] = child
			node = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s", ErrPathConflict, strings.Join(parts[:i+1], Separator))
		}
		node = child
	}

	leaf := ToCamel(parts[len(parts)-1])
	existing, exists := node[leaf]
	if !exists {
		node[leaf] = value
		return nil
	}
	// An empty-map leaf may coexist with deeper paths sharing its prefix.
	existingMap, existingIsMap := existing.(map[string]interface{})
	valueMap, valueIsMap := value.(map[string]interface{})
	if existingIsMap && valueIsMap && (len(existingMap) == 0 || len(valueMap) == 0) {
		for k, v := range valueMap {
			existingMap[k] = v
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPathConflict, path)
}

// HasPrefix reports whether any flat path equals prefix or lives under it.
func HasPrefix(flat map[string]interface{}, prefix string) bool {
	if prefix == "" {
		return len(flat) > 0
	}
	for path := range flat {
		if path == prefix || strings.HasPrefix(path, prefix+Separator) {
			return true
		}
	}
	return false
}
