// Package validation turns declarative field rules and JSON schemas into
// submission validators that report models.Messages.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/workdesk/workdesk/pkg/models"
)

// Common rule tags.
const (
	Required     = "required"
	Email        = "required,email"
	Numeric      = "required,numeric"
	AlphaNumeric = "required,alphanum"
)

// StringLength requires a string of min..max characters.
func StringLength(minLen, maxLen int) string {
	return fmt.Sprintf("required,min=%d,max=%d", minLen, maxLen)
}

// NumberRange requires a number between lo and hi inclusive.
func NumberRange(lo, hi float64) string {
	return fmt.Sprintf("required,gte=%g,lte=%g", lo, hi)
}

// Rules maps a dot path in the submitted data to a validator tag. Missing
// values fail any tag that does not start with omitempty.
type Rules map[string]string

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks each path in name order.
func (r Rules) Validate(data models.Data) models.Messages {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	var out models.Messages

	for _, path := range paths {
		value, _ := models.Lookup(data, path)

		err := validate.Var(value, r[path])
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			out = append(out, models.Errorf(path+".invalid", "%s: %v", path, err))

			continue
		}

		for _, fe := range verrs {
			out = append(out, message(path, fe))
		}
	}

	return out
}

func message(path string, fe validator.FieldError) models.Message {
	key := path + "." + fe.Tag()

	switch fe.Tag() {
	case "required":
		return models.Errorf(key, "%s is required", path)
	case "email":
		return models.Errorf(key, "%s must be an email address", path)
	case "numeric":
		return models.Errorf(key, "%s must be numeric", path)
	case "alphanum":
		return models.Errorf(key, "%s must be alphanumeric", path)
	case "min", "gte":
		return models.Errorf(key, "%s must be at least %s", path, fe.Param())
	case "max", "lte":
		return models.Errorf(key, "%s must be at most %s", path, fe.Param())
	default:
		return models.Errorf(key, "%s failed %s %s", path, fe.Tag(), fe.Param())
	}
}

// PatternRule requires the string at Path to match Expr.
type PatternRule struct {
	Path string
	Expr *regexp.Regexp
}

// Pattern compiles expr into a PatternRule. It panics on an invalid
// expression, like regexp.MustCompile.
func Pattern(path, expr string) PatternRule {
	return PatternRule{Path: path, Expr: regexp.MustCompile(expr)}
}

func (p PatternRule) Validate(data models.Data) models.Messages {
	value, _ := models.Lookup(data, p.Path)

	s, ok := value.(string)
	if !ok || !p.Expr.MatchString(s) {
		return models.Messages{
			models.Errorf(p.Path+".pattern", "%s must match %s", p.Path, p.Expr.String()),
		}
	}

	return nil
}
