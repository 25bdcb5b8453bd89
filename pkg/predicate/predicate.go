// Package predicate provides pure boolean functions over business data and
// ordered routing tables built from them.
package predicate

import (
	"github.com/workdesk/workdesk/pkg/models"
)

// Predicate is a pure function of a business-data snapshot.
type Predicate func(data models.Data) bool

// Evaluate runs p against data. A nil predicate is treated as Always.
func Evaluate(p Predicate, data models.Data) bool {
	if p == nil {
		return true
	}

	return p(data)
}

// Always matches every snapshot; use it as the final fallback of a branch table.
func Always() Predicate {
	return func(models.Data) bool { return true }
}

// Never matches nothing.
func Never() Predicate {
	return func(models.Data) bool { return false }
}

// All is the logical AND of its predicates. An empty All is true.
func All(ps ...Predicate) Predicate {
	return func(data models.Data) bool {
		for _, p := range ps {
			if !Evaluate(p, data) {
				return false
			}
		}

		return true
	}
}

// Any is the logical OR of its predicates. An empty Any is false.
func Any(ps ...Predicate) Predicate {
	return func(data models.Data) bool {
		for _, p := range ps {
			if Evaluate(p, data) {
				return true
			}
		}

		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(data models.Data) bool {
		return !Evaluate(p, data)
	}
}

// Exists matches when the dot path resolves to a non-nil value.
func Exists(path string) Predicate {
	return func(data models.Data) bool {
		v, ok := models.Lookup(data, path)

		return ok && v != nil
	}
}

// IsTrue matches when the dot path holds the boolean true.
func IsTrue(path string) Predicate {
	return Eq(Key(path), Value(true))
}
