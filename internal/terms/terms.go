// Package terms evaluates escrow matching predicates.
//
// A predicate is a boolean expression over two items, bound as a and b.
// Items are converted to their canonical JSON shape first, so fields are
// addressed by their json names and numbers are integers:
//
//	a.category == b.category && a.variant != b.variant
//
// Three engines are available: expr (default), cel and js.
package terms

import (
	"errors"
	"fmt"

	"github.com/roach88/objstore/internal/ir"
)

// Engine names an expression language.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	EngineJS   Engine = "js"
)

// DefaultExpression requires equal category and differing variant.
const DefaultExpression = "a.category == b.category && a.variant != b.variant"

// ParseEngine validates an engine name. The empty string selects expr.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case "", EngineExpr:
		return EngineExpr, nil
	case EngineCEL, EngineJS:
		return Engine(s), nil
	default:
		return "", fmt.Errorf("unknown terms engine %q (want expr, cel or js)", s)
	}
}

// EvaluationError captures the engine and expression alongside the cause.
type EvaluationError struct {
	Engine Engine
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("terms: %s expr=%q: %v", e.Engine, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// program is one compiled expression.
type program interface {
	eval(env map[string]any) (any, error)
}

// Predicate is a compiled matching expression.
type Predicate struct {
	engine     Engine
	expression string
	prog       program
}

// Option configures Compile.
type Option func(*options)

type options struct {
	cache ProgramCache
}

// WithProgramCache shares compiled programs across Compile calls.
func WithProgramCache(cache ProgramCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// Compile parses expression for engine. Syntax errors surface here rather
// than at first use.
func Compile(engine Engine, expression string, opts ...Option) (*Predicate, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	engine, err := ParseEngine(string(engine))
	if err != nil {
		return nil, err
	}
	if expression == "" {
		return nil, &EvaluationError{Engine: engine, Err: errors.New("expression must not be empty")}
	}

	key := string(engine) + ":" + expression
	if o.cache != nil {
		if cached, ok := o.cache.Get(key); ok {
			if prog, ok := cached.(program); ok {
				return &Predicate{engine: engine, expression: expression, prog: prog}, nil
			}
		}
	}

	var prog program
	switch engine {
	case EngineCEL:
		prog, err = compileCEL(expression)
	case EngineJS:
		prog, err = compileJS(expression)
	default:
		prog, err = compileExpr(expression)
	}
	if err != nil {
		return nil, &EvaluationError{Engine: engine, Expr: expression, Err: err}
	}
	if o.cache != nil {
		o.cache.Set(key, prog)
	}
	return &Predicate{engine: engine, expression: expression, prog: prog}, nil
}

// Engine returns the predicate's engine.
func (p *Predicate) Engine() Engine { return p.engine }

// String returns the source expression.
func (p *Predicate) String() string { return p.expression }

// Match evaluates the predicate with a and b bound to the two items.
func (p *Predicate) Match(a, b any) (bool, error) {
	av, err := normalize(a)
	if err != nil {
		return false, &EvaluationError{Engine: p.engine, Expr: p.expression, Err: fmt.Errorf("a: %w", err)}
	}
	bv, err := normalize(b)
	if err != nil {
		return false, &EvaluationError{Engine: p.engine, Expr: p.expression, Err: fmt.Errorf("b: %w", err)}
	}

	out, err := p.prog.eval(map[string]any{"a": av, "b": bv})
	if err != nil {
		return false, &EvaluationError{Engine: p.engine, Expr: p.expression, Err: err}
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, &EvaluationError{Engine: p.engine, Expr: p.expression, Err: fmt.Errorf("result is %T, want bool", out)}
	}
	return ok, nil
}

func normalize(v any) (any, error) {
	irv, err := ir.FromGo(v)
	if err != nil {
		return nil, err
	}
	return ir.ToGo(irv), nil
}
