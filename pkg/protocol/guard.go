package protocol

import (
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/predicate"
)

// Guard emits Failure when Check does not hold.
type Guard struct {
	Check   predicate.Predicate
	Failure models.Message
}

// Require builds a guard that blocks creation unless p holds.
func Require(p predicate.Predicate, key, text string) Guard {
	return Guard{
		Check:   p,
		Failure: models.Message{Severity: models.SeverityError, Key: key, Text: text},
	}
}

// Advise builds a guard that only reports an Action message.
func Advise(p predicate.Predicate, key, text string) Guard {
	return Guard{
		Check:   p,
		Failure: models.Message{Severity: models.SeverityAction, Key: key, Text: text},
	}
}

// RunGuards evaluates guards in order and collects the failures.
func RunGuards(guards []Guard, data models.Data) models.Messages {
	var out models.Messages

	for _, g := range guards {
		if !predicate.Evaluate(g.Check, data) {
			out = append(out, g.Failure)
		}
	}

	return out
}
