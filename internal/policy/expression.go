package policy

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/claimguard/internal/domain"
)

// ExpressionCategory is the category reported for expression-rule exclusions.
const ExpressionCategory = "Policy Rule"

// compiledExpression holds a pre-compiled CEL program.
type compiledExpression struct {
	rule    ExpressionRule
	program cel.Program
}

// newExpressionEnv declares the variables an expression rule may reference.
func newExpressionEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func compileExpressions(rules []ExpressionRule) ([]*compiledExpression, error) {
	env, err := newExpressionEnv()
	if err != nil {
		return nil, err
	}

	compiled := make([]*compiledExpression, 0, len(rules))
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("expression_rules[%d] has no id", i)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate expression rule id %s", rule.ID)
		}
		seen[rule.ID] = true

		ast, issues := env.Compile(rule.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
		}

		outputType := ast.OutputType()
		if outputType != cel.BoolType && outputType != cel.DynType {
			return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, outputType)
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
		}

		compiled = append(compiled, &compiledExpression{rule: rule, program: program})
	}
	return compiled, nil
}

// matches evaluates the expression against one line item.
func (e *compiledExpression) matches(item domain.LineItem) (bool, error) {
	activation := map[string]any{
		"item": map[string]any{
			"name":        strings.ToLower(item.Name),
			"category":    string(item.Category),
			"quantity":    int64(item.Quantity),
			"unit_price":  item.UnitPrice,
			"total_price": item.TotalPrice,
		},
	}

	out, _, err := e.program.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("rule %s: evaluation error: %w", e.rule.ID, err)
	}

	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("rule %s: expression returned %s, want bool", e.rule.ID, out.Type())
	}
	return bool(b), nil
}
