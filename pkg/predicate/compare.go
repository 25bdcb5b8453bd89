package predicate

import (
	"cmp"

	"github.com/workdesk/workdesk/pkg/models"
)

// Operand is either a key into the business data or a literal value.
type Operand struct {
	key     string
	value   any
	fromKey bool
}

// Key refers to a dot path in the business data.
func Key(path string) Operand {
	return Operand{key: path, fromKey: true}
}

// Value is a literal operand. Integers are compared as float64.
func Value(v any) Operand {
	return Operand{value: v}
}

func (o Operand) resolve(data models.Data) (any, bool) {
	if !o.fromKey {
		return normalizeScalar(o.value), true
	}

	v, ok := models.Lookup(data, o.key)
	if !ok || v == nil {
		return nil, false
	}

	return normalizeScalar(v), true
}

func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

type operator int

const (
	opLt operator = iota
	opLte
	opGt
	opGte
	opEq
	opNe
)

// Lt matches a < b.
func Lt(a, b Operand) Predicate { return comparison(opLt, a, b) }

// Lte matches a <= b.
func Lte(a, b Operand) Predicate { return comparison(opLte, a, b) }

// Gt matches a > b.
func Gt(a, b Operand) Predicate { return comparison(opGt, a, b) }

// Gte matches a >= b.
func Gte(a, b Operand) Predicate { return comparison(opGte, a, b) }

// Eq matches a == b.
func Eq(a, b Operand) Predicate { return comparison(opEq, a, b) }

// Ne matches a != b. A missing key is never equal, so Ne is false as well.
func Ne(a, b Operand) Predicate { return comparison(opNe, a, b) }

// comparison yields false whenever an operand is missing or the operand
// types differ, mirroring the guard semantics of the business rules.
func comparison(op operator, a, b Operand) Predicate {
	return func(data models.Data) bool {
		left, ok := a.resolve(data)
		if !ok {
			return false
		}

		right, ok := b.resolve(data)
		if !ok {
			return false
		}

		switch l := left.(type) {
		case float64:
			r, ok := right.(float64)
			if !ok {
				return false
			}

			return ordered(op, cmp.Compare(l, r))
		case string:
			r, ok := right.(string)
			if !ok {
				return false
			}

			return ordered(op, cmp.Compare(l, r))
		case bool:
			r, ok := right.(bool)
			if !ok {
				return false
			}

			switch op {
			case opEq:
				return l == r
			case opNe:
				return l != r
			default:
				return false
			}
		default:
			return false
		}
	}
}

func ordered(op operator, c int) bool {
	switch op {
	case opLt:
		return c < 0
	case opLte:
		return c <= 0
	case opGt:
		return c > 0
	case opGte:
		return c >= 0
	case opEq:
		return c == 0
	case opNe:
		return c != 0
	default:
		return false
	}
}
