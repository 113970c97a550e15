package harness

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter selects cases by a boolean expression over their fields.
type Filter struct {
	source  string
	program *vm.Program
}

// caseEnv exposes a case to filter expressions. Available names:
// id, token, reason, expected, length, segments.
func caseEnv(c MalformedTokenCase) map[string]any {
	return map[string]any{
		"id":       c.ID,
		"token":    c.Token,
		"reason":   c.Reason,
		"expected": c.Expected.String(),
		"length":   len(c.Token),
		"segments": strings.Count(c.Token, ".") + 1,
	}
}

// CompileFilter compiles expression, e.g. `expected == "malformed_format" && segments < 3`.
// An empty expression matches every case.
func CompileFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(expression, expr.Env(caseEnv(MalformedTokenCase{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.source
}

// Match evaluates the filter against c.
func (f *Filter) Match(c MalformedTokenCase) (bool, error) {
	if f.program == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, caseEnv(c))
	if err != nil {
		return false, fmt.Errorf("eval filter %q on %s: %w", f.source, c.ID, err)
	}

	matched, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not return bool (got %T)", f.source, output) //nolint:err113 // carries the value type
	}

	return matched, nil
}

// Select returns the ids of the matching cases in their original order.
func (f *Filter) Select(cases []MalformedTokenCase) ([]string, error) {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ok, err := f.Match(c)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, c.ID)
		}
	}

	return ids, nil
}
