package terms

import (
	"fmt"

	"github.com/dop251/goja"
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
)

type exprProgram struct {
	program *exprvm.Program
}

func compileExpr(expression string) (program, error) {
	p, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{"a": map[string]any{}, "b": map[string]any{}}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, err
	}
	return &exprProgram{program: p}, nil
}

func (p *exprProgram) eval(env map[string]any) (any, error) {
	return exprlang.Run(p.program, env)
}

type celProgram struct {
	program celgo.Program
}

func compileCEL(expression string) (program, error) {
	env, err := celgo.NewEnv(
		celgo.Variable("a", celgo.DynType),
		celgo.Variable("b", celgo.DynType),
	)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &celProgram{program: prg}, nil
}

func (p *celProgram) eval(env map[string]any) (any, error) {
	out, _, err := p.program.Eval(env)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// jsProgram holds a compiled script. Each evaluation gets a fresh
// runtime, since goja runtimes are not safe for concurrent use.
type jsProgram struct {
	program *goja.Program
}

func compileJS(expression string) (program, error) {
	p, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, err
	}
	return &jsProgram{program: p}, nil
}

func (p *jsProgram) eval(env map[string]any) (any, error) {
	vm := goja.New()
	for k, v := range env {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}
