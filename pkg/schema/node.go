// Package schema models the remote field schemas that drive interactive
// request building.
//
// The service publishes one schema document for feeds and one for forwarders
// and collectors. Each document is a tree of Nodes: leaves describe a single
// typed field, MESSAGE nodes group children, ONEOF nodes offer mutually
// exclusive options and alternatives offer grouped field sets of which the
// user picks one.
//
// # Field paths
//
// Every node carries an absolute dotted snake_case path from the root of the
// request body, e.g. details.workday_settings.hostname. Children of a repeated
// MESSAGE are absolute as well; callers that build one item of the repeated
// message strip the root prefix themselves.
package schema

import (
	"strings"

	"github.com/CliForge/siemctl/pkg/fieldmap"
)

// Type is the type tag of a schema node.
type Type string

const (
	TypeString                Type = "STRING"
	TypeInt                   Type = "INT"
	TypeBool                  Type = "BOOL"
	TypeEnum                  Type = "ENUM"
	TypeStringSecret          Type = "STRING_SECRET"
	TypeStringMultiline       Type = "STRING_MULTILINE"
	TypeStringMultilineSecret Type = "STRING_MULTILINE_SECRET"
	TypeMapStringString       Type = "MAP_STRING_STRING"
	TypeKeyValueList          Type = "KEY_VALUE_LIST"
	TypeStringList            Type = "STRING_LIST"
	TypeRepeatedString        Type = "REPEATED_STRING"
	TypeLabel                 Type = "LABEL"
	TypeOneOf                 Type = "ONEOF"
	TypeMessage               Type = "MESSAGE"
)

var knownTypes = map[Type]bool{
	TypeString: true, TypeInt: true, TypeBool: true, TypeEnum: true,
	TypeStringSecret: true, TypeStringMultiline: true, TypeStringMultilineSecret: true,
	TypeMapStringString: true, TypeKeyValueList: true, TypeStringList: true,
	TypeRepeatedString: true, TypeLabel: true, TypeOneOf: true, TypeMessage: true,
}

// Valid reports whether t is a known type tag.
func (t Type) Valid() bool {
	return knownTypes[t]
}

// IsSecret reports whether values of this type must stay out of backups.
func (t Type) IsSecret() bool {
	return t == TypeStringSecret || t == TypeStringMultilineSecret
}

// IsMultiline reports whether input for this type is read line by line until
// end of input.
func (t Type) IsMultiline() bool {
	switch t {
	case TypeStringMultiline, TypeStringMultilineSecret, TypeMapStringString, TypeKeyValueList, TypeLabel:
		return true
	}
	return false
}

// ValueKind maps a leaf type to the fieldmap variant that holds its input.
func (t Type) ValueKind() fieldmap.Kind {
	switch t {
	case TypeInt:
		return fieldmap.KindInt
	case TypeBool:
		return fieldmap.KindBool
	case TypeStringSecret, TypeStringMultilineSecret:
		return fieldmap.KindSecret
	case TypeStringList, TypeRepeatedString:
		return fieldmap.KindStrings
	case TypeKeyValueList, TypeLabel:
		return fieldmap.KindLabels
	case TypeMapStringString:
		return fieldmap.KindRaw
	case TypeMessage:
		return fieldmap.KindMessages
	default:
		return fieldmap.KindString
	}
}

// Choice is one ENUM option.
type Choice struct {
	DisplayName string `json:"displayName"`
	Value       string `json:"value"`
}

// Option is one branch of a ONEOF node.
type Option struct {
	DisplayName string  `json:"displayName"`
	FieldPath   string  `json:"fieldPath"`
	Children    []*Node `json:"fieldSchemas,omitempty"`
}

// Alternative is one selectable group of fields.
type Alternative struct {
	DisplayName string  `json:"displayName"`
	Children    []*Node `json:"fieldSchemas,omitempty"`
}

// Node is one entry of a schema document.
type Node struct {
	FieldPath    string         `json:"fieldPath"`
	DisplayName  string         `json:"displayName"`
	Description  string         `json:"description,omitempty"`
	Type         Type           `json:"type"`
	IsRequired   bool           `json:"isRequired,omitempty"`
	IsRepeated   bool           `json:"isRepeated,omitempty"`
	ReadOnly     bool           `json:"readOnly,omitempty"`
	DefaultValue interface{}    `json:"defaultValue,omitempty"`
	EnumChoices  []Choice       `json:"enumFieldSchemas,omitempty"`
	Children     []*Node        `json:"fieldSchemas,omitempty"`
	OneOfOptions []Option       `json:"oneOfFieldSchemas,omitempty"`
	Alternatives []*Alternative `json:"alternatives,omitempty"`
}

// Name returns the last segment of the node's field path.
func (n *Node) Name() string {
	return fieldmap.LastSegment(n.FieldPath)
}

// HasDefault reports whether the schema declares a default value.
func (n *Node) HasDefault() bool {
	if n.DefaultValue == nil {
		return false
	}
	if s, ok := n.DefaultValue.(string); ok {
		return s != ""
	}
	return true
}

// ChoiceIndex returns the index of the ENUM choice whose wire value equals v,
// or -1.
func (n *Node) ChoiceIndex(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return -1
	}
	for i, c := range n.EnumChoices {
		if c.Value == s {
			return i
		}
	}
	return -1
}

// Relativize returns a deep copy of n with prefix stripped from every field
// path in the subtree. It is used to build one item of a repeated message.
func (n *Node) Relativize(prefix string) *Node {
	cp := *n
	cp.FieldPath = trimPath(n.FieldPath, prefix)
	cp.Children = relativizeAll(n.Children, prefix)
	if n.OneOfOptions != nil {
		cp.OneOfOptions = make([]Option, len(n.OneOfOptions))
		for i, o := range n.OneOfOptions {
			cp.OneOfOptions[i] = Option{
				DisplayName: o.DisplayName,
				FieldPath:   trimPath(o.FieldPath, prefix),
				Children:    relativizeAll(o.Children, prefix),
			}
		}
	}
	if n.Alternatives != nil {
		cp.Alternatives = make([]*Alternative, len(n.Alternatives))
		for i, a := range n.Alternatives {
			cp.Alternatives[i] = &Alternative{
				DisplayName: a.DisplayName,
				Children:    relativizeAll(a.Children, prefix),
			}
		}
	}
	return &cp
}

func relativizeAll(nodes []*Node, prefix string) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, c := range nodes {
		out[i] = c.Relativize(prefix)
	}
	return out
}

func trimPath(path, prefix string) string {
	if prefix == "" {
		return path
	}
	if path == prefix {
		return ""
	}
	return strings.TrimPrefix(path, prefix+fieldmap.Separator)
}
