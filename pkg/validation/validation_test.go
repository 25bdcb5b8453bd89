package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/protocol"
)

var (
	_ protocol.Validator = Rules{}
	_ protocol.Validator = PatternRule{}
	_ protocol.Validator = (*Schema)(nil)
)

func keys(msgs models.Messages) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Key)
	}

	return out
}

func TestRules(t *testing.T) {
	rules := Rules{
		"email":         Email,
		"score":         NumberRange(1, 5),
		"comment":       "omitempty,min=3,max=20",
		"reviewer.code": AlphaNumeric,
	}

	t.Run("valid", func(t *testing.T) {
		msgs := rules.Validate(models.Data{
			"email":    "alice@example.com",
			"score":    float64(4),
			"reviewer": map[string]any{"code": "R2D2"},
		})
		assert.Empty(t, msgs)
	})

	t.Run("invalid", func(t *testing.T) {
		msgs := rules.Validate(models.Data{
			"email":    "not-an-email",
			"score":    float64(9),
			"comment":  "no",
			"reviewer": map[string]any{"code": "r-2"},
		})

		require.True(t, msgs.HasErrors())
		assert.Equal(t, []string{"comment.min", "email.email", "reviewer.code.alphanum", "score.lte"}, keys(msgs))
	})

	t.Run("missing", func(t *testing.T) {
		msgs := rules.Validate(models.Data{})
		assert.Equal(t, []string{"email.required", "reviewer.code.required", "score.required"}, keys(msgs))
	})
}

func TestPattern(t *testing.T) {
	p := Pattern("ref", `^DOC-[0-9]+$`)

	assert.Empty(t, p.Validate(models.Data{"ref": "DOC-42"}))
	assert.Equal(t, []string{"ref.pattern"}, keys(p.Validate(models.Data{"ref": "doc"})))
	assert.Equal(t, []string{"ref.pattern"}, keys(p.Validate(models.Data{"ref": float64(1)})))
}

func TestSchema(t *testing.T) {
	s, err := NewSchema(map[string]any{
		"type":     "object",
		"required": []any{"decision"},
		"properties": map[string]any{
			"decision": map[string]any{"type": "string", "enum": []any{"accept", "reject"}},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, s.Validate(models.Data{"decision": "accept"}))

	msgs := s.Validate(models.Data{"decision": "maybe"})
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SeverityError, msgs[0].Severity)
	assert.Contains(t, msgs[0].Key, "decision")

	msgs = s.Validate(nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Key, "required")
}

func TestNewSchema_Invalid(t *testing.T) {
	_, err := NewSchema(map[string]any{"type": 12})
	assert.Error(t, err)
}
