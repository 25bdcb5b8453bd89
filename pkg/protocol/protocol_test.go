package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/predicate"
)

func TestRunGuards(t *testing.T) {
	guards := []Guard{
		Require(predicate.Exists("applicant"), "applicant.required", "an applicant is required"),
		Advise(predicate.Exists("phone"), "phone.missing", "add a phone number"),
		Require(predicate.Gt(predicate.Key("amount"), predicate.Value(0)), "amount.positive", "amount must be positive"),
	}

	msgs := RunGuards(guards, models.Data{"amount": 5.0})

	require.Len(t, msgs, 2)
	assert.Equal(t, models.Message{
		Severity: models.SeverityError,
		Key:      "applicant.required",
		Text:     "an applicant is required",
	}, msgs[0])
	assert.Equal(t, models.SeverityAction, msgs[1].Severity)
	assert.True(t, msgs.HasErrors())

	ok := RunGuards(guards, models.Data{"applicant": "ada", "amount": 5.0})
	require.Len(t, ok, 1)
	assert.False(t, ok.HasErrors(), "advice alone never blocks")

	assert.Empty(t, RunGuards(nil, models.Data{}))
}

func TestNodeSpec(t *testing.T) {
	spec := &NodeSpec{
		Name:   "Review",
		Guards: []Guard{Require(predicate.Exists("applicant"), "applicant.required", "missing")},
		Validators: []Validator{
			ValidatorFunc(func(data models.Data) models.Messages {
				if _, ok := data["approved"]; !ok {
					return models.Messages{models.Errorf("approved.required", "approved is required")}
				}

				return nil
			}),
			ValidatorFunc(func(models.Data) models.Messages {
				return models.Messages{models.Infof("review.thanks", "thanks")}
			}),
		},
		Routing:  predicate.Branch(predicate.Otherwise("Approve")),
		Children: []models.WorkflowType{"Notify"},
		Merge:    models.Namespaced("review"),
		Human:    &InputSpec{StaffRole: "reviewer", SLAHours: 8},
	}

	assert.Equal(t, models.NodeType("Review"), spec.Type())
	assert.True(t, spec.CreationGuard(models.Data{}).HasErrors())
	assert.False(t, spec.CreationGuard(models.Data{"applicant": "ada"}).HasErrors())

	msgs := spec.ValidateSubmission(models.Data{}, models.Data{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "approved.required", msgs[0].Key)

	assert.False(t, spec.ValidateSubmission(models.Data{}, models.Data{"approved": true}).HasErrors())
	assert.Equal(t, []models.NodeType{"Approve"}, spec.Routes().Next(models.Data{}))
	assert.Equal(t, []models.WorkflowType{"Notify"}, spec.ChildWorkflowTypes())
	assert.NotNil(t, spec.MergePolicy())
	assert.Equal(t, "reviewer", spec.Input().StaffRole)
	assert.False(t, spec.Auto())
}

func TestWorkflowSpec_Defaults(t *testing.T) {
	spec := &WorkflowSpec{Name: "DocVerify", Start: "Intake"}

	assert.Equal(t, models.WorkflowType("DocVerify"), spec.Type())
	assert.Equal(t, models.NodeType("Intake"), spec.StartNode(models.Data{}))
	assert.Empty(t, spec.CreationGuard(models.Data{}))

	merged := spec.MergePolicy()(models.Data{"a": models.Data{"x": 1.0}}, models.Data{"a": models.Data{"y": 2.0}})
	assert.Equal(t, models.Data{"a": models.Data{"x": 1.0, "y": 2.0}}, merged, "defaults to a deep merge")

	delta, err := spec.OnChildClosed(&models.WorkflowInstance{}, &models.WorkflowInstance{})
	require.NoError(t, err)
	assert.Nil(t, delta)
}

func TestWorkflowSpec_ChildClosed(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	spec := &WorkflowSpec{
		Name:  "DocVerify",
		Start: "Intake",
		ChildClosed: func(_, child *models.WorkflowInstance) (models.Data, error) {
			calls++
			if child.WorkflowType == "Broken" {
				return nil, boom
			}

			return models.Data{"child": child.WorkflowInstanceID}, nil
		},
	}

	delta, err := spec.OnChildClosed(&models.WorkflowInstance{}, &models.WorkflowInstance{
		WorkflowType:       "Notify",
		WorkflowInstanceID: "c-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Data{"child": "c-1"}, delta)

	_, err = spec.OnChildClosed(&models.WorkflowInstance{}, &models.WorkflowInstance{WorkflowType: "Broken"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
