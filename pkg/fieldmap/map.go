package fieldmap

import (
	"errors"
	"sort"
)

var errSkip = errors.New("skip")

// Map is an insertion-ordered map from snake_case field path to Value.
// It is the builder's working state and the source of both the wire body
// and the backup record.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores v at path, keeping the original position of an existing key.
func (m *Map) Set(path string, v Value) {
	if _, exists := m.values[path]; !exists {
		m.keys = append(m.keys, path)
	}
	m.values[path] = v
}

// Get returns the value stored at path.
func (m *Map) Get(path string) (Value, bool) {
	v, ok := m.values[path]
	return v, ok
}

// Keys returns the paths in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of paths.
func (m *Map) Len() int { return len(m.keys) }

// Wire renders the nested camelCase body, secrets included.
func (m *Map) Wire() (map[string]interface{}, error) {
	return m.render(renderWire, nil)
}

// Masked renders the nested camelCase body with every secret passed through
// mask. It is used for previews.
func (m *Map) Masked(mask func(string) string) (map[string]interface{}, error) {
	return m.render(renderMasked, mask)
}

// Backup returns the flat path map with every secret removed. Secret values
// inside repeated-message items are removed as well.
func (m *Map) Backup() map[string]interface{} {
	flat := make(map[string]interface{}, len(m.keys))
	for _, k := range m.keys {
		v, err := m.values[k].render(renderBackup, nil)
		if err != nil {
			continue
		}
		flat[k] = v
	}
	return flat
}

func (m *Map) render(mode renderMode, mask func(string) string) (map[string]interface{}, error) {
	flat := make(map[string]interface{}, len(m.keys))
	for _, k := range m.keys {
		v, err := m.values[k].render(mode, mask)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		flat[k] = v
	}
	return Unflatten(flat)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
