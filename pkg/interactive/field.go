package interactive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/schema"
)

// Outcome tells the caller what a field prompt produced.
type Outcome int

const (
	// Set means the returned value must be written to the request.
	Set Outcome = iota
	// Unchanged means the user kept the existing value.
	Unchanged
	// Omitted means the optional field was left empty and has no existing
	// value.
	Omitted
)

// Field prompts for one leaf of the schema. existing is the value the field
// currently holds, or nil.
//
// Empty input resolves in this order: keep the existing value, use the schema
// default, re-prompt when the field is required, otherwise omit.
func (p *Prompter) Field(node *schema.Node, existing interface{}) (fieldmap.Value, Outcome, error) {
	switch node.Type {
	case schema.TypeMessage, schema.TypeOneOf:
		return fieldmap.Value{}, Omitted, fmt.Errorf("field %q of type %s cannot be prompted directly", node.FieldPath, node.Type)
	case schema.TypeBool:
		return p.boolField(node, existing)
	case schema.TypeEnum:
		return p.enumField(node, existing)
	}

	label := fieldLabel(node, existing)
	for {
		raw, err := p.readField(node, label)
		if err != nil {
			return fieldmap.Value{}, Omitted, err
		}

		if strings.TrimSpace(raw) == "" {
			if existing != nil {
				return fieldmap.Value{}, Unchanged, nil
			}
			if node.HasDefault() {
				return fieldmap.FromExisting(node.Type.ValueKind(), node.DefaultValue), Set, nil
			}
			if node.IsRequired {
				p.errorf("This field is required")
				continue
			}
			return fieldmap.Value{}, Omitted, nil
		}

		v, problem := parseField(node.Type, raw)
		if problem != "" {
			p.errorf("%s", problem)
			continue
		}
		return v, Set, nil
	}
}

// readField collects the raw answer for a field. Multi-line answers are
// joined with newlines.
func (p *Prompter) readField(node *schema.Node, label string) (string, error) {
	switch {
	case node.Type == schema.TypeStringMultilineSecret:
		lines, err := p.SecretLines(label)
		return strings.Join(lines, "\n"), err
	case node.Type.IsMultiline():
		lines, err := p.Lines(label)
		return strings.Join(lines, "\n"), err
	case node.Type == schema.TypeStringSecret:
		return p.Secret(label)
	default:
		return p.ask(label)
	}
}

// parseField converts raw input to the value of a t field. It returns the
// message shown to the user when the input does not fit.
func parseField(t schema.Type, raw string) (fieldmap.Value, string) {
	switch t {
	case schema.TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fieldmap.Value{}, fmt.Sprintf("Invalid input %q. Please enter an integer.", strings.TrimSpace(raw))
		}
		return fieldmap.Int(n), ""
	case schema.TypeStringSecret, schema.TypeStringMultilineSecret:
		return fieldmap.Secret(raw), ""
	case schema.TypeStringMultiline:
		return fieldmap.String(raw), ""
	case schema.TypeStringList, schema.TypeRepeatedString:
		return fieldmap.Strings(SplitList(raw)), ""
	case schema.TypeKeyValueList, schema.TypeLabel, schema.TypeMapStringString:
		labels, err := ParseKeyValueLines(strings.Split(raw, "\n"))
		var kv *KeyValueError
		if errors.As(err, &kv) {
			return fieldmap.Value{}, fmt.Sprintf("Invalid input %q. Expected format key:value.", kv.Line)
		}
		if t != schema.TypeMapStringString {
			return fieldmap.Labels(labels), ""
		}
		m := make(map[string]interface{}, len(labels))
		for _, l := range labels {
			m[l.Key] = l.Value
		}
		return fieldmap.Raw(m), ""
	default:
		return fieldmap.String(strings.TrimSpace(raw)), ""
	}
}

func (p *Prompter) boolField(node *schema.Node, existing interface{}) (fieldmap.Value, Outcome, error) {
	def := false
	if b, ok := existing.(bool); ok {
		def = b
	} else if b, ok := node.DefaultValue.(bool); ok {
		def = b
	}

	answer, err := p.Confirm(&ConfirmPromptOptions{Message: fieldLabel(node, nil), Default: def})
	if err != nil {
		return fieldmap.Value{}, Omitted, err
	}
	return fieldmap.Bool(answer), Set, nil
}

func (p *Prompter) enumField(node *schema.Node, existing interface{}) (fieldmap.Value, Outcome, error) {
	if len(node.EnumChoices) == 0 {
		return fieldmap.Value{}, Omitted, fmt.Errorf("enum field %q has no choices", node.FieldPath)
	}

	options := make([]string, len(node.EnumChoices))
	for i, c := range node.EnumChoices {
		options[i] = c.DisplayName
	}

	preselected := node.ChoiceIndex(existing)
	fromExisting := preselected >= 0
	if !fromExisting {
		preselected = node.ChoiceIndex(node.DefaultValue)
	}

	idx, err := p.Select(&SelectPromptOptions{
		Message:  fieldLabel(node, nil),
		Options:  options,
		Default:  preselected,
		Required: node.IsRequired,
	})
	if err != nil {
		return fieldmap.Value{}, Omitted, err
	}
	switch {
	case idx < 0:
		return fieldmap.Value{}, Omitted, nil
	case fromExisting && idx == preselected:
		return fieldmap.Value{}, Unchanged, nil
	}
	return fieldmap.String(node.EnumChoices[idx].Value), Set, nil
}

// fieldLabel renders "(*) Name (Description) [default]".
func fieldLabel(node *schema.Node, existing interface{}) string {
	var b strings.Builder
	if node.IsRequired {
		b.WriteString("(*) ")
	}
	name := node.DisplayName
	if name == "" {
		name = node.Name()
	}
	b.WriteString(name)
	if node.Description != "" {
		fmt.Fprintf(&b, " (%s)", node.Description)
	}

	kind := node.Type.ValueKind()
	switch {
	case existing != nil:
		fmt.Fprintf(&b, " [%s]", fieldmap.FromExisting(kind, existing).Text())
	case node.HasDefault():
		fmt.Fprintf(&b, " [%s]", fieldmap.FromExisting(kind, node.DefaultValue).Text())
	}
	return b.String()
}

// SplitList splits a comma-separated answer, trimming each element.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// KeyValueError reports a line that is not in key:value form.
type KeyValueError struct {
	Line string
}

func (e *KeyValueError) Error() string {
	return fmt.Sprintf("line %q is not in key:value form", e.Line)
}

// ParseKeyValueLines parses "key:value" lines. Blank lines are ignored; the
// value keeps everything after the first colon. A malformed line yields a
// *KeyValueError.
func ParseKeyValueLines(lines []string) ([]fieldmap.Label, error) {
	var out []fieldmap.Label
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &KeyValueError{Line: line}
		}
		out = append(out, fieldmap.Label{Key: key, Value: strings.TrimSpace(value)})
	}
	return out, nil
}
