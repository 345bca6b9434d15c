package request

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// SkipRule hides fields while a condition over their already-answered
// siblings holds. Siblings are addressed by the last segment of their path.
type SkipRule struct {
	When   string
	Fields []string
}

// DefaultSkipRules hide the connection settings that UDP syslog does not use.
var DefaultSkipRules = []SkipRule{
	{When: `protocol == "UDP"`, Fields: []string{"connection_timeout", "tls_settings"}},
}

type compiledRule struct {
	source  string
	program *vm.Program
	fields  map[string]bool
}

func compileRules(rules []SkipRule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		program, err := expr.Compile(rule.When, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid skip rule %q: %w", rule.When, err)
		}
		fields := make(map[string]bool, len(rule.Fields))
		for _, f := range rule.Fields {
			fields[f] = true
		}
		out = append(out, compiledRule{source: rule.When, program: program, fields: fields})
	}
	return out, nil
}

// skipped reports whether any rule hides name given the sibling values in env.
func skipped(rules []compiledRule, name string, env map[string]interface{}) (bool, error) {
	for _, rule := range rules {
		if !rule.fields[name] {
			continue
		}
		result, err := expr.Run(rule.program, env)
		if err != nil {
			return false, fmt.Errorf("failed to evaluate skip rule %q: %w", rule.source, err)
		}
		if hide, ok := result.(bool); ok && hide {
			return true, nil
		}
	}
	return false, nil
}
