package validation

import (
	"fmt"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Schema validates submitted data against a JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// NewSchema compiles a JSON schema given as a Go value.
func NewSchema(schema map[string]any) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Schema{schema: compiled}, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(schema map[string]any) *Schema {
	s, err := NewSchema(schema)
	if err != nil {
		panic(err)
	}

	return s
}

// Validate reports one Error message per schema violation.
func (s *Schema) Validate(data models.Data) models.Messages {
	if data == nil {
		data = models.Data{}
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return models.Messages{models.Errorf("schema.invalid_document", "%v", err)}
	}

	if result.Valid() {
		return nil
	}

	out := make(models.Messages, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		out = append(out, models.Errorf(re.Field()+"."+re.Type(), "%s", re.String()))
	}

	return out
}
