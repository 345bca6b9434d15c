package fieldmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindStrings
	KindLabels
	KindRaw
	KindSecret
	KindMessages
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStrings:
		return "strings"
	case KindLabels:
		return "labels"
	case KindRaw:
		return "raw"
	case KindSecret:
		return "secret"
	case KindMessages:
		return "messages"
	default:
		return "unknown"
	}
}

// Label is one key/value pair of a label or key-value list.
type Label struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Value is a user-supplied or inherited field value.
//
// Secret values render into request bodies but never into backups. Message
// values hold the items of a repeated message, each an ordered Map of its own.
type Value struct {
	kind   Kind
	str    string
	num    int64
	flag   bool
	strs   []string
	labels []Label
	raw    interface{}
	items  []*Map
}

// String returns a plain string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Strings returns a string list value. A nil list renders as [].
func Strings(s []string) Value {
	if s == nil {
		s = []string{}
	}
	return Value{kind: KindStrings, strs: s}
}

// Labels returns a key/value list value. A nil list renders as [].
func Labels(l []Label) Value {
	if l == nil {
		l = []Label{}
	}
	return Value{kind: KindLabels, labels: l}
}

// Raw wraps an arbitrary JSON value that passes through unchanged.
func Raw(v interface{}) Value { return Value{kind: KindRaw, raw: v} }

// Secret returns a string value that is excluded from backups.
func Secret(s string) Value { return Value{kind: KindSecret, str: s} }

// Messages returns the items of a repeated message.
func Messages(items []*Map) Value { return Value{kind: KindMessages, items: items} }

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// IsSecret reports whether v must stay out of backups.
func (v Value) IsSecret() bool { return v.kind == KindSecret }

// Items returns the repeated-message items, if any.
func (v Value) Items() []*Map { return v.items }

// Text renders the value for display next to a prompt.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindSecret:
		return "********"
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindStrings:
		return strings.Join(v.strs, ", ")
	case KindLabels:
		parts := make([]string, len(v.labels))
		for i, l := range v.labels {
			parts[i] = l.Key + ":" + l.Value
		}
		return strings.Join(parts, ", ")
	case KindMessages:
		return fmt.Sprintf("%d item(s)", len(v.items))
	default:
		return fmt.Sprint(v.raw)
	}
}

// Wire renders the value as it is sent to the service.
func (v Value) Wire() (interface{}, error) {
	return v.render(renderWire, nil)
}

type renderMode int

const (
	renderWire renderMode = iota
	renderBackup
	renderMasked
)

// render converts v into a JSON-ready value. Backup rendering returns errSkip
// for secrets.
func (v Value) render(mode renderMode, mask func(string) string) (interface{}, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindSecret:
		switch mode {
		case renderBackup:
			return nil, errSkip
		case renderMasked:
			return mask(v.str), nil
		}
		return v.str, nil
	case KindInt:
		return v.num, nil
	case KindBool:
		return v.flag, nil
	case KindStrings:
		out := make([]interface{}, len(v.strs))
		for i, s := range v.strs {
			out[i] = s
		}
		return out, nil
	case KindLabels:
		out := make([]interface{}, len(v.labels))
		for i, l := range v.labels {
			out[i] = map[string]interface{}{"key": l.Key, "value": l.Value}
		}
		return out, nil
	case KindMessages:
		out := make([]interface{}, 0, len(v.items))
		for _, item := range v.items {
			nested, err := item.render(mode, mask)
			if err != nil {
				return nil, err
			}
			out = append(out, nested)
		}
		return out, nil
	default:
		return v.raw, nil
	}
}

// FromExisting converts a JSON value taken from a backup or a fetched
// resource into the Value variant implied by kind. Values that do not fit the
// variant are wrapped as Raw.
func FromExisting(kind Kind, existing interface{}) Value {
	switch kind {
	case KindString:
		if s, ok := existing.(string); ok {
			return String(s)
		}
	case KindSecret:
		if s, ok := existing.(string); ok {
			return Secret(s)
		}
	case KindInt:
		if n, ok := AsInt(existing); ok {
			return Int(n)
		}
	case KindBool:
		if b, ok := existing.(bool); ok {
			return Bool(b)
		}
	case KindStrings:
		if s, ok := AsStrings(existing); ok {
			return Strings(s)
		}
	case KindLabels:
		if l, ok := AsLabels(existing); ok {
			return Labels(l)
		}
	}
	return Raw(existing)
}

// AsInt interprets JSON numbers and numeric strings as an integer.
func AsInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// AsStrings interprets a JSON list of strings.
func AsStrings(v interface{}) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// AsLabels interprets a JSON list of {"key","value"} objects or a JSON
// object of string values.
func AsLabels(v interface{}) ([]Label, bool) {
	switch list := v.(type) {
	case []Label:
		return list, true
	case []interface{}:
		out := make([]Label, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, false
			}
			key, _ := m["key"].(string)
			value, _ := m["value"].(string)
			out = append(out, Label{Key: key, Value: value})
		}
		return out, true
	case map[string]interface{}:
		out := make([]Label, 0, len(list))
		for _, key := range sortedKeys(list) {
			s, ok := list[key].(string)
			if !ok {
				return nil, false
			}
			out = append(out, Label{Key: key, Value: s})
		}
		return out, true
	}
	return nil, false
}
