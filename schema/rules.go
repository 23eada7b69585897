package schema

import (
	"fmt"
	"strings"

	"github.com/signadot/ptsync/ir"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the environment rules are evaluated in.
type Env struct {
	Value any    `expr:"value"`
	Type  string `expr:"type"`
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Env(Env{}),
		expr.AsBool(),
		expr.Function("getpath", func(params ...any) (any, error) {
			path, err := ir.ParsePath(params[1].(string))
			if err != nil {
				return nil, err
			}
			res, _ := ir.Get(params[0], path)
			return res, nil
		},
			new(func(any, string) any)),
		expr.Function("text", func(params ...any) (any, error) {
			return PlainText(params[0]), nil
		},
			new(func(any) string)),
		expr.Function("blocks", func(params ...any) (any, error) {
			arr, _ := params[0].([]any)
			return len(arr), nil
		},
			new(func(any) int)),
	}
}

// Compile compiles the rules of t. It is called by ParseType and Register;
// types built in code are compiled on first validation.
func (t *Type) Compile() error {
	t.once.Do(func() {
		progs := make([]*vm.Program, len(t.Rules))
		for i := range t.Rules {
			r := &t.Rules[i]
			prg, err := expr.Compile(r.Expr, exprOpts()...)
			if err != nil {
				t.compErr = fmt.Errorf("rule %q: %w", r.Name, err)
				return
			}
			progs[i] = prg
		}
		t.programs = progs
	})
	return t.compErr
}

// RuleError reports a rule which could not be evaluated.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func (t *Type) checkRules(v any) (*Resolution, error) {
	if err := t.Compile(); err != nil {
		return nil, err
	}
	env := Env{Value: v, Type: t.Name}
	for i, prg := range t.programs {
		r := &t.Rules[i]
		out, err := expr.Run(prg, env)
		if err != nil {
			return nil, &RuleError{Rule: r.Name, Err: err}
		}
		if ok, _ := out.(bool); ok {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("value does not satisfy rule %q", r.Name)
		}
		return &Resolution{Description: msg, Rule: r.Name}, nil
	}
	return nil, nil
}

// PlainText returns the text of the spans of a portable text value, one
// line per block.
func PlainText(v any) string {
	arr, _ := v.([]any)
	lines := make([]string, 0, len(arr))
	for _, item := range arr {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		children, _ := block["children"].([]any)
		b := &strings.Builder{}
		for _, c := range children {
			span, _ := c.(map[string]any)
			if s, ok := span["text"].(string); ok {
				b.WriteString(s)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
