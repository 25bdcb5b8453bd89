package predicate

import (
	"github.com/workdesk/workdesk/pkg/models"
)

// Mode selects how a routing table picks successors.
type Mode int

const (
	// FirstMatch selects at most one successor: the first matching route.
	FirstMatch Mode = iota
	// AllMatch selects every matching route, in declaration order.
	AllMatch
)

func (m Mode) String() string {
	if m == AllMatch {
		return "all-match"
	}

	return "first-match"
}

// Route sends the workflow to Target when When holds.
type Route struct {
	When   Predicate
	Target models.NodeType
}

// To builds a route.
func To(target models.NodeType, when Predicate) Route {
	return Route{When: when, Target: target}
}

// Otherwise builds the unconditional fallback route of a branch table.
func Otherwise(target models.NodeType) Route {
	return Route{Target: target}
}

// Table is the ordered routing list of one node type.
type Table struct {
	Mode   Mode
	Routes []Route
}

// Branch builds a first-match table.
func Branch(routes ...Route) Table {
	return Table{Mode: FirstMatch, Routes: routes}
}

// FanOut builds an all-match table.
func FanOut(routes ...Route) Table {
	return Table{Mode: AllMatch, Routes: routes}
}

// Next returns the successor node types for data. An empty result means the
// workflow has nowhere to go and closes.
func (t Table) Next(data models.Data) []models.NodeType {
	var out []models.NodeType

	for _, r := range t.Routes {
		if !Evaluate(r.When, data) {
			continue
		}

		out = append(out, r.Target)

		if t.Mode == FirstMatch {
			break
		}
	}

	return out
}

// Complete reports whether a first-match table ends with an Otherwise route.
// All-match tables are always complete.
func (t Table) Complete() bool {
	if t.Mode == AllMatch {
		return true
	}

	if len(t.Routes) == 0 {
		return false
	}

	return t.Routes[len(t.Routes)-1].When == nil
}

// Targets lists every node type the table can route to.
func (t Table) Targets() []models.NodeType {
	out := make([]models.NodeType, 0, len(t.Routes))
	for _, r := range t.Routes {
		out = append(out, r.Target)
	}

	return out
}
