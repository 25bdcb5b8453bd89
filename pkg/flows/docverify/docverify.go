// Package docverify holds the document verification flows shipped with
// workdesk: a DocVerify workflow that reviews an application and optionally
// escalates it for approval, and a Notify workflow spawned on approval.
package docverify

import (
	"errors"
	"fmt"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/predicate"
	"github.com/workdesk/workdesk/pkg/protocol"
	"github.com/workdesk/workdesk/pkg/registry"
	"github.com/workdesk/workdesk/pkg/validation"
)

const (
	WorkflowDocVerify models.WorkflowType = "DocVerify"
	WorkflowNotify    models.WorkflowType = "Notify"

	NodeIntake  models.NodeType = "Intake"
	NodeReview  models.NodeType = "Review"
	NodeApprove models.NodeType = "Approve"
	NodeSend    models.NodeType = "Send"

	RoleReviewer = "reviewer"
	RoleApprover = "approver"

	ReviewSLAHours  = 8
	ApproveSLAHours = 16

	// EscalationAmount sends a review to approval regardless of the escalate flag.
	EscalationAmount = 10000
)

var reviewSchema = validation.MustSchema(map[string]any{
	"type":     "object",
	"required": []any{"approved"},
	"properties": map[string]any{
		"approved": map[string]any{"type": "boolean"},
		"escalate": map[string]any{"type": "boolean"},
		"comment":  map[string]any{"type": "string", "maxLength": 500},
	},
})

var approveRules = validation.Rules{
	"decision": "required,oneof=accept reject",
	"note":     "omitempty,max=500",
}

var hasApplicant = protocol.Require(predicate.Exists("applicant"),
	"applicant.required", "an applicant is required")

// Workflows returns the workflow definitions of the package.
func Workflows() []protocol.WorkflowDefinition {
	return []protocol.WorkflowDefinition{
		&protocol.WorkflowSpec{
			Name:        WorkflowDocVerify,
			Guards:      []protocol.Guard{hasApplicant},
			Start:       NodeIntake,
			Merge:       models.DeepMerge,
			ChildClosed: foldNotification,
		},
		&protocol.WorkflowSpec{
			Name:   WorkflowNotify,
			Guards: []protocol.Guard{hasApplicant},
			Start:  NodeSend,
		},
	}
}

// Nodes returns the node definitions of the package.
func Nodes() []protocol.NodeDefinition {
	return []protocol.NodeDefinition{
		&protocol.NodeSpec{
			Name:      NodeIntake,
			Automatic: true,
			Routing:   predicate.Branch(predicate.Otherwise(NodeReview)),
		},
		&protocol.NodeSpec{
			Name:       NodeReview,
			Human:      &protocol.InputSpec{StaffRole: RoleReviewer, SLAHours: ReviewSLAHours},
			Validators: []protocol.Validator{reviewSchema},
			// No fallback: a plain review closes the workflow.
			Routing: predicate.Branch(
				predicate.To(NodeApprove, predicate.MustExpr(
					fmt.Sprintf("escalate == true || (amount ?? 0) > %d", EscalationAmount))),
			),
		},
		&protocol.NodeSpec{
			Name:       NodeApprove,
			Guards:     []protocol.Guard{protocol.Require(predicate.IsTrue("approved"), "review.not_approved", "only approved reviews can be escalated")},
			Human:      &protocol.InputSpec{StaffRole: RoleApprover, SLAHours: ApproveSLAHours},
			Validators: []protocol.Validator{approveRules},
			Children:   []models.WorkflowType{WorkflowNotify},
			Merge:      models.Namespaced("approval"),
		},
		&protocol.NodeSpec{
			Name:      NodeSend,
			Automatic: true,
		},
	}
}

// Register adds every definition of the package to reg.
func Register(reg *registry.Registry) error {
	var errs []error

	for _, def := range Nodes() {
		errs = append(errs, reg.RegisterNode(def))
	}

	for _, def := range Workflows() {
		errs = append(errs, reg.RegisterWorkflow(def))
	}

	return errors.Join(errs...)
}

// foldNotification records each closed Notify child on the parent.
func foldNotification(_, child *models.WorkflowInstance) (models.Data, error) {
	if child.WorkflowType != WorkflowNotify {
		return nil, nil
	}

	return models.Data{
		"notified":        true,
		"notification_id": child.WorkflowInstanceID,
	}, nil
}
