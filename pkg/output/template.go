package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	exprPattern     = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	variablePattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_\.]*)\}`)
)

// TemplateEngine renders text templates against a resource.
//
// Two placeholder forms are supported:
//  1. {field} or {object.field}: a value looked up by path; missing keys
//     render empty
//  2. {{expression}}: an expr expression over the resource
type TemplateEngine struct {
	programs map[string]*vm.Program
}

// NewTemplateEngine creates a new template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{programs: make(map[string]*vm.Program)}
}

// Render renders template with data. Expressions are evaluated before
// variables so an expression result is never reinterpreted.
func (t *TemplateEngine) Render(template string, data map[string]interface{}) (string, error) {
	if data == nil {
		data = map[string]interface{}{}
	}

	var evalErr error
	result := exprPattern.ReplaceAllStringFunc(template, func(match string) string {
		value, err := t.evaluate(strings.TrimSpace(match[2:len(match)-2]), data)
		if err != nil {
			evalErr = err
			return match
		}
		return display(value)
	})
	if evalErr != nil {
		return "", evalErr
	}

	result = variablePattern.ReplaceAllStringFunc(result, func(match string) string {
		return display(lookup(match[1:len(match)-1], data))
	})
	return result, nil
}

func (t *TemplateEngine) evaluate(expression string, data map[string]interface{}) (interface{}, error) {
	program, ok := t.programs[expression]
	if !ok {
		var err error
		program, err = expr.Compile(expression, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression '%s': %w", expression, err)
		}
		t.programs[expression] = program
	}

	result, err := expr.Run(program, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute expression '%s': %w", expression, err)
	}
	return result, nil
}

func lookup(path string, data map[string]interface{}) interface{} {
	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func display(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// TextFormatter renders each record through the template, separated by a
// blank line.
type TextFormatter struct {
	engine *TemplateEngine
}

// Name returns the formatter name.
func (f *TextFormatter) Name() Format {
	return FormatTXT
}

// Format writes one block per record.
func (f *TextFormatter) Format(w io.Writer, data *ExportData) error {
	if data.Template == "" {
		return fmt.Errorf("no template to export")
	}
	for i, record := range data.Records {
		block, err := f.engine.Render(data.Template, record)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, strings.TrimRight(block, "\n")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
