package results

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate is a compiled boolean filter over records.
type Predicate struct {
	source  string
	program *vm.Program
}

// CompileWhere compiles a boolean expression such as
// `Amount > 1000 && Owner.Name != nil`. Fields missing from a record
// evaluate to nil.
func CompileWhere(source string) (*Predicate, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", source, err)
	}

	return &Predicate{source: source, program: program}, nil
}

// Match evaluates the predicate against one record.
func (p *Predicate) Match(rec Object) (bool, error) {
	out, err := expr.Run(p.program, rec.Map())
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q: %w", p.source, err)
	}

	ok, _ := out.(bool)

	return ok, nil
}

// Where returns the records matching the predicate, in order.
func Where(records []Object, p *Predicate) ([]Object, error) {
	var out []Object

	for _, rec := range records {
		ok, err := p.Match(rec)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, rec)
		}
	}

	return out, nil
}
