// Package protocol defines the contracts that workflow and node types implement
// to be registered with the engine.
package protocol

import (
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/predicate"
)

// InputSpec marks a node as requiring a staff member with StaffRole.
type InputSpec struct {
	StaffRole string
	SLAHours  float64
}

// NodeDefinition is the behaviour behind a NodeType.
type NodeDefinition interface {
	// Type returns the unique node type name.
	Type() models.NodeType

	// CreationGuard is evaluated against the owning workflow's current data
	// before the node is created.
	CreationGuard(data models.Data) models.Messages

	// ValidateSubmission checks submitted data against the current workflow data.
	ValidateSubmission(current, submitted models.Data) models.Messages

	// Routes returns the routing table consulted after the data merge.
	Routes() predicate.Table

	// ChildWorkflowTypes lists the workflows spawned when the node completes.
	ChildWorkflowTypes() []models.WorkflowType

	// MergePolicy overrides the workflow merge policy when non-nil.
	MergePolicy() models.MergePolicy

	// Input returns nil for nodes that need no human action.
	Input() *InputSpec

	// Auto nodes are submitted by the system right after creation.
	Auto() bool
}

// Validator checks a data set and reports its findings.
type Validator interface {
	Validate(data models.Data) models.Messages
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(data models.Data) models.Messages

// Validate calls f.
func (f ValidatorFunc) Validate(data models.Data) models.Messages {
	return f(data)
}

// NodeSpec is a declarative NodeDefinition.
type NodeSpec struct {
	Name       models.NodeType
	Guards     []Guard
	Validators []Validator
	Routing    predicate.Table
	Children   []models.WorkflowType
	Merge      models.MergePolicy
	Human      *InputSpec
	Automatic  bool
}

var _ NodeDefinition = (*NodeSpec)(nil)

func (s *NodeSpec) Type() models.NodeType {
	return s.Name
}

func (s *NodeSpec) CreationGuard(data models.Data) models.Messages {
	return RunGuards(s.Guards, data)
}

// ValidateSubmission runs every validator against the submitted data.
func (s *NodeSpec) ValidateSubmission(_, submitted models.Data) models.Messages {
	var out models.Messages
	for _, v := range s.Validators {
		out = append(out, v.Validate(submitted)...)
	}

	return out
}

func (s *NodeSpec) Routes() predicate.Table {
	return s.Routing
}

func (s *NodeSpec) ChildWorkflowTypes() []models.WorkflowType {
	return s.Children
}

func (s *NodeSpec) MergePolicy() models.MergePolicy {
	return s.Merge
}

func (s *NodeSpec) Input() *InputSpec {
	return s.Human
}

func (s *NodeSpec) Auto() bool {
	return s.Automatic
}
