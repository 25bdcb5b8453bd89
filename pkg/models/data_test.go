package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	in := Data{
		"count":  3,
		"ratio":  float32(0.5),
		"big":    uint64(7),
		"name":   "ada",
		"ok":     true,
		"none":   nil,
		"tags":   []string{"a", "b"},
		"labels": map[string]string{"k": "v"},
		"nested": map[string]any{"items": []any{1, "x"}},
	}

	out, err := Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, Data{
		"count":  float64(3),
		"ratio":  float64(0.5),
		"big":    float64(7),
		"name":   "ada",
		"ok":     true,
		"none":   nil,
		"tags":   []any{"a", "b"},
		"labels": Data{"k": "v"},
		"nested": Data{"items": []any{float64(1), "x"}},
	}, out)

	// The input is left untouched.
	assert.Equal(t, 3, in["count"])
}

func TestNormalize_Nil(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, Data{}, out)
}

func TestNormalize_UnsupportedValue(t *testing.T) {
	_, err := Normalize(Data{"outer": map[string]any{"list": []any{"ok", struct{}{}}}})
	require.Error(t, err)

	var unsupported *UnsupportedValueError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "outer.list[1]", unsupported.Path)
}

func TestLookup(t *testing.T) {
	data := Data{"a": Data{"b": Data{"c": "deep"}}, "flat": 1.0}

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{"top level", "flat", 1.0, true},
		{"nested", "a.b.c", "deep", true},
		{"missing leaf", "a.b.x", nil, false},
		{"through a scalar", "flat.x", nil, false},
		{"missing root", "zzz", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(data, tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := Data{"m": Data{"x": 1.0}, "l": []any{Data{"y": 2.0}}}
	cp := Clone(orig)

	cp["m"].(Data)["x"] = 9.0
	cp["l"].([]any)[0].(Data)["y"] = 9.0

	assert.Equal(t, 1.0, orig["m"].(Data)["x"])
	assert.Equal(t, 2.0, orig["l"].([]any)[0].(Data)["y"])
	assert.Nil(t, Clone(nil))
}

func TestDeepMerge(t *testing.T) {
	current := Data{
		"applicant": Data{"name": "ada", "age": 36.0},
		"tags":      []any{"a"},
		"status":    "new",
	}
	delta := Data{
		"applicant": Data{"age": 37.0},
		"tags":      []any{"b"},
		"status":    Data{"code": "open"},
		"extra":     true,
	}

	merged := DeepMerge(current, delta)

	assert.Equal(t, Data{
		"applicant": Data{"name": "ada", "age": 37.0},
		"tags":      []any{"b"},
		"status":    Data{"code": "open"},
		"extra":     true,
	}, merged)

	assert.Equal(t, 36.0, current["applicant"].(Data)["age"], "current must not be mutated")

	merged["tags"].([]any)[0] = "changed"
	assert.Equal(t, "b", delta["tags"].([]any)[0], "delta must not be aliased")
}

func TestDeepMerge_NilCurrent(t *testing.T) {
	assert.Equal(t, Data{"a": 1.0}, DeepMerge(nil, Data{"a": 1.0}))
}

func TestAppendMerge(t *testing.T) {
	current := Data{"notes": []any{"one"}, "meta": Data{"seen": []any{1.0}}}
	delta := Data{"notes": []any{"two"}, "meta": Data{"seen": []any{2.0}}, "new": []any{"x"}}

	assert.Equal(t, Data{
		"notes": []any{"one", "two"},
		"meta":  Data{"seen": []any{1.0, 2.0}},
		"new":   []any{"x"},
	}, AppendMerge(current, delta))

	assert.Equal(t, []any{"one"}, current["notes"])
}

func TestNamespaced(t *testing.T) {
	merge := Namespaced("approval")

	out := merge(Data{"applicant": "ada"}, Data{"decision": "accept"})
	out = merge(out, Data{"note": "fine"})

	assert.Equal(t, Data{
		"applicant": "ada",
		"approval":  Data{"decision": "accept", "note": "fine"},
	}, out)
}

func TestMessages(t *testing.T) {
	msgs := Messages{
		Infof("info.key", "just %s", "info"),
		Actionf("action.key", "do something"),
		Errorf("error.key", "bad %d", 1),
	}

	assert.True(t, msgs.HasErrors())
	assert.Equal(t, Messages{{Severity: SeverityError, Key: "error.key", Text: "bad 1"}}, msgs.Errors())
	assert.Equal(t, "info.key: just info; action.key: do something; error.key: bad 1", msgs.String())

	assert.False(t, msgs[:2].HasErrors())
	assert.Empty(t, Messages(nil).Errors())
}
