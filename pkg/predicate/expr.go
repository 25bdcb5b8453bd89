package predicate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/workdesk/workdesk/pkg/models"
)

// Expr compiles a boolean expression over the business data, for example
// `approved == true && amount > 1000`. Unknown identifiers evaluate to nil.
func Expr(source string) (Predicate, error) {
	program, err := expr.Compile(source, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", source, err)
	}

	return fromProgram(program), nil
}

// MustExpr is like Expr but panics on a compile error. It is meant for
// package-level routing tables.
func MustExpr(source string) Predicate {
	p, err := Expr(source)
	if err != nil {
		panic(err)
	}

	return p
}

func fromProgram(program *vm.Program) Predicate {
	return func(data models.Data) bool {
		env := data
		if env == nil {
			env = models.Data{}
		}

		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}

		b, ok := out.(bool)

		return ok && b
	}
}
