// Package request builds request bodies by walking a schema tree and asking
// the operator for each field.
//
// The builder is seeded with a flat snake_case map of existing values, taken
// either from a backup or from the current resource. Every field the operator
// keeps or enters ends up in the result's ordered field map, from which the
// wire body, the backup record and the update mask are derived.
package request

import (
	"fmt"

	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/schema"
)

// Prompter is the interactive input the builder depends on.
type Prompter interface {
	Field(node *schema.Node, existing interface{}) (fieldmap.Value, interactive.Outcome, error)
	Confirm(opts *interactive.ConfirmPromptOptions) (bool, error)
	Select(opts *interactive.SelectPromptOptions) (int, error)
	Warn(message string)
}

// Extra is a field prompted outside the schema tree. When the operator
// leaves it empty and nothing exists, Fallback is stored if set.
type Extra struct {
	Node     *schema.Node
	Fallback *fieldmap.Value
}

// Options configures a Builder.
type Options struct {
	// SkipRules default to DefaultSkipRules when nil.
	SkipRules []SkipRule
	// Leading fields are prompted before the schema tree.
	Leading []Extra
	// Trailing fields are prompted after the schema tree.
	Trailing []Extra
}

// Builder drives a Prompter over a schema tree.
type Builder struct {
	prompter Prompter
	rules    []compiledRule
	leading  []Extra
	trailing []Extra
}

// NewBuilder creates a Builder.
func NewBuilder(p Prompter, opts *Options) (*Builder, error) {
	if p == nil {
		return nil, fmt.Errorf("prompter is required")
	}
	if opts == nil {
		opts = &Options{}
	}
	rules := opts.SkipRules
	if rules == nil {
		rules = DefaultSkipRules
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Builder{
		prompter: p,
		rules:    compiled,
		leading:  opts.Leading,
		trailing: opts.Trailing,
	}, nil
}

// Result is the outcome of one build.
type Result struct {
	Fields *fieldmap.Map
	// RepeatedRoots are the paths of repeated messages set in Fields.
	RepeatedRoots []string
}

// Body renders the camelCase wire body.
func (r *Result) Body() (map[string]interface{}, error) {
	return r.Fields.Wire()
}

// UpdateMask returns the update_mask paths, leaving out the given snake_case
// paths.
func (r *Result) UpdateMask(exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	paths := make([]string, 0, r.Fields.Len())
	for _, k := range r.Fields.Keys() {
		if !skip[k] {
			paths = append(paths, k)
		}
	}
	return UpdateMask(paths, r.RepeatedRoots)
}

// Build walks root and returns the collected fields. seed maps snake_case
// paths to existing values and may be nil.
func (b *Builder) Build(root *schema.Node, seed map[string]interface{}) (*Result, error) {
	if root == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if seed == nil {
		seed = map[string]interface{}{}
	}

	r := &run{builder: b}
	out := fieldmap.NewMap()

	if err := r.extras(b.leading, seed, out); err != nil {
		return nil, err
	}
	if err := r.node(root, seed, out, map[string]interface{}{}); err != nil {
		return nil, err
	}
	if err := r.extras(b.trailing, seed, out); err != nil {
		return nil, err
	}

	return &Result{Fields: out, RepeatedRoots: r.roots}, nil
}

// run holds the state of one build.
type run struct {
	builder *Builder
	roots   []string
}

func (r *run) extras(extras []Extra, seed map[string]interface{}, out *fieldmap.Map) error {
	for _, extra := range extras {
		if err := r.leaf(extra.Node, seed, out, map[string]interface{}{}); err != nil {
			return err
		}
		if _, ok := out.Get(extra.Node.FieldPath); !ok && extra.Fallback != nil {
			out.Set(extra.Node.FieldPath, *extra.Fallback)
		}
	}
	return nil
}

// walk builds sibling nodes in declared order. env collects the values of
// the siblings answered so far for the skip rules.
func (r *run) walk(nodes []*schema.Node, seed map[string]interface{}, out *fieldmap.Map) error {
	env := make(map[string]interface{})
	for _, n := range nodes {
		hide, err := skipped(r.builder.rules, n.Name(), env)
		if err != nil {
			return err
		}
		if hide {
			continue
		}
		if err := r.node(n, seed, out, env); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) node(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map, env map[string]interface{}) error {
	if n.ReadOnly {
		return nil
	}

	switch {
	case n.Type == schema.TypeOneOf:
		return r.oneOf(n, seed, out)
	case n.Type == schema.TypeMessage && n.IsRepeated:
		return r.repeated(n, seed, out)
	case n.Type == schema.TypeMessage:
		return r.message(n, seed, out)
	case len(n.Alternatives) > 0:
		return r.alternatives(n, seed, out)
	default:
		return r.leaf(n, seed, out, env)
	}
}

func (r *run) leaf(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map, env map[string]interface{}) error {
	existing := existingValue(n, seed)

	v, outcome, err := r.builder.prompter.Field(n, existing)
	if err != nil {
		return err
	}

	switch outcome {
	case interactive.Set:
		out.Set(n.FieldPath, v)
	case interactive.Unchanged:
		v = fieldmap.FromExisting(n.Type.ValueKind(), existing)
		out.Set(n.FieldPath, v)
	default:
		return nil
	}

	if wire, err := v.Wire(); err == nil {
		env[n.Name()] = wire
	}
	return nil
}

func (r *run) message(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map) error {
	if !n.IsRequired && n.FieldPath != "" {
		ok, err := r.builder.prompter.Confirm(&interactive.ConfirmPromptOptions{
			Message: fmt.Sprintf("Do you want to configure %s?", displayName(n)),
			Default: fieldmap.HasPrefix(seed, n.FieldPath),
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := r.walk(n.Children, seed, out); err != nil {
		return err
	}
	if len(n.Alternatives) > 0 {
		return r.alternatives(n, seed, out)
	}
	return nil
}

func (r *run) alternatives(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map) error {
	names := make([]string, len(n.Alternatives))
	selected := -1
	for i, alt := range n.Alternatives {
		names[i] = alt.DisplayName
		if selected < 0 && anyPresent(alt.Children, seed) {
			selected = i
		}
	}

	idx, err := r.builder.prompter.Select(&interactive.SelectPromptOptions{
		Message:  fmt.Sprintf("Select %s:", displayName(n)),
		Options:  names,
		Default:  selected,
		Required: true,
	})
	if err != nil {
		return err
	}
	return r.walk(n.Alternatives[idx].Children, seed, out)
}

func (r *run) oneOf(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map) error {
	if len(n.OneOfOptions) == 0 {
		return nil
	}

	names := make([]string, len(n.OneOfOptions))
	selected := -1
	for i, opt := range n.OneOfOptions {
		names[i] = opt.DisplayName
		if selected < 0 && fieldmap.HasPrefix(seed, opt.FieldPath) {
			selected = i
		}
	}

	for {
		idx, err := r.builder.prompter.Select(&interactive.SelectPromptOptions{
			Message:  fmt.Sprintf("Select %s:", displayName(n)),
			Options:  names,
			Default:  selected,
			Required: n.IsRequired,
		})
		if err != nil {
			return err
		}
		if idx < 0 {
			return nil
		}

		opt := n.OneOfOptions[idx]
		if len(opt.Children) == 0 {
			out.Set(opt.FieldPath, fieldmap.Raw(map[string]interface{}{}))
			return nil
		}

		branch := fieldmap.NewMap()
		if err := r.walk(opt.Children, seed, branch); err != nil {
			return err
		}
		if branch.Len() == 0 {
			r.builder.prompter.Warn(fmt.Sprintf("At least one field of %s must be set.", opt.DisplayName))
			continue
		}

		for _, k := range branch.Keys() {
			v, _ := branch.Get(k)
			out.Set(k, v)
		}
		return nil
	}
}

func (r *run) repeated(n *schema.Node, seed map[string]interface{}, out *fieldmap.Map) error {
	existing := existingItems(seed[n.FieldPath])
	name := displayName(n)

	configure := n.IsRequired && len(existing) == 0
	if !configure {
		message := fmt.Sprintf("Do you want to configure %s?", name)
		if len(existing) > 0 {
			message = fmt.Sprintf("%s has %d existing item(s). Do you want to reconfigure them?", name, len(existing))
		}
		ok, err := r.builder.prompter.Confirm(&interactive.ConfirmPromptOptions{Message: message})
		if err != nil {
			return err
		}
		configure = ok
	}

	if !configure {
		if len(existing) > 0 {
			out.Set(n.FieldPath, fieldmap.Raw(seed[n.FieldPath]))
			r.roots = append(r.roots, n.FieldPath)
		}
		return nil
	}

	item := n.Relativize(n.FieldPath)
	var items []*fieldmap.Map
	for i := 0; ; i++ {
		itemSeed := map[string]interface{}{}
		if i < len(existing) {
			itemSeed = Seed(item, existing[i])
		}

		fields := fieldmap.NewMap()
		nested := &run{builder: r.builder}
		if err := nested.walk(item.Children, itemSeed, fields); err != nil {
			return err
		}
		items = append(items, fields)

		more, err := r.builder.prompter.Confirm(&interactive.ConfirmPromptOptions{
			Message: fmt.Sprintf("Do you want to add another %s?", name),
			Default: i+1 < len(existing),
		})
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	out.Set(n.FieldPath, fieldmap.Messages(items))
	r.roots = append(r.roots, n.FieldPath)
	return nil
}

// existingValue looks up the current value of a leaf. Map fields are whole
// values in a seed built by Seed or read from a backup.
func existingValue(n *schema.Node, seed map[string]interface{}) interface{} {
	return seed[n.FieldPath]
}

func existingItems(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}

func anyPresent(nodes []*schema.Node, seed map[string]interface{}) bool {
	for _, n := range nodes {
		if fieldmap.HasPrefix(seed, n.FieldPath) {
			return true
		}
	}
	return false
}

func displayName(n *schema.Node) string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Name()
}
