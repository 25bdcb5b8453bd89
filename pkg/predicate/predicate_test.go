package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/models"
)

var sample = models.Data{
	"amount":   2500.0,
	"approved": true,
	"status":   "open",
	"applicant": models.Data{
		"name": "ada",
		"age":  36.0,
	},
	"empty": nil,
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"gt number", Gt(Key("amount"), Value(1000)), true},
		{"lt number", Lt(Key("amount"), Value(1000)), false},
		{"gte equal", Gte(Key("amount"), Value(2500)), true},
		{"lte equal", Lte(Key("amount"), Value(2500.0)), true},
		{"eq string", Eq(Key("status"), Value("open")), true},
		{"ne string", Ne(Key("status"), Value("closed")), true},
		{"ordered strings", Lt(Key("status"), Value("pending")), true},
		{"eq bool", Eq(Key("approved"), Value(true)), true},
		{"bool ordering is never true", Gt(Key("approved"), Value(false)), false},
		{"nested key", Gte(Key("applicant.age"), Value(18)), true},
		{"two keys", Gt(Key("amount"), Key("applicant.age")), true},
		{"missing key", Eq(Key("missing"), Value(1)), false},
		{"ne on missing key", Ne(Key("missing"), Value(1)), false},
		{"nil value", Eq(Key("empty"), Value(nil)), false},
		{"type mismatch", Eq(Key("amount"), Value("2500")), false},
		{"type mismatch ne", Ne(Key("status"), Value(3)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p(sample))
		})
	}
}

func TestCombinators(t *testing.T) {
	yes := Always()
	no := Never()

	assert.True(t, All()(sample))
	assert.True(t, All(yes, yes)(sample))
	assert.False(t, All(yes, no)(sample))

	assert.False(t, Any()(sample))
	assert.True(t, Any(no, yes)(sample))
	assert.False(t, Any(no, no)(sample))

	assert.True(t, Not(no)(sample))
	assert.False(t, Not(yes)(sample))

	assert.True(t, Evaluate(nil, sample), "nil predicate is Always")
	assert.True(t, All(nil)(sample))
}

func TestExistsAndIsTrue(t *testing.T) {
	assert.True(t, Exists("applicant.name")(sample))
	assert.False(t, Exists("applicant.email")(sample))
	assert.False(t, Exists("empty")(sample))

	assert.True(t, IsTrue("approved")(sample))
	assert.False(t, IsTrue("status")(sample))
	assert.False(t, IsTrue("missing")(sample))
}

func TestExpr(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"approved == true && amount > 1000", true},
		{"amount > 10000", false},
		{"applicant.name == 'ada'", true},
		{"(missing ?? 0) > 1", false},
		{"missing == true", false},
		{"status in ['open', 'pending']", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			p, err := Expr(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p(sample))
		})
	}
}

func TestExpr_NilData(t *testing.T) {
	p := MustExpr("(amount ?? 0) == 0")

	assert.True(t, p(nil))
}

func TestExpr_CompileError(t *testing.T) {
	_, err := Expr("amount >")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile predicate")

	assert.Panics(t, func() { MustExpr("amount >") })
}
