package protocol

import (
	"github.com/workdesk/workdesk/pkg/models"
)

// WorkflowDefinition is the behaviour behind a WorkflowType.
type WorkflowDefinition interface {
	// Type returns the unique workflow type name.
	Type() models.WorkflowType

	// CreationGuard is evaluated against the start data.
	CreationGuard(startData models.Data) models.Messages

	// StartNode names the node created together with the workflow.
	StartNode(startData models.Data) models.NodeType

	// MergePolicy folds submitted node data into the business data.
	MergePolicy() models.MergePolicy

	// OnChildClosed is called once per closed child workflow. The returned
	// delta is merged into the parent's business data; nil leaves it untouched.
	OnChildClosed(parent, child *models.WorkflowInstance) (models.Data, error)
}

// ChildClosedFunc folds a closed child into its parent.
type ChildClosedFunc func(parent, child *models.WorkflowInstance) (models.Data, error)

// WorkflowSpec is a declarative WorkflowDefinition.
type WorkflowSpec struct {
	Name        models.WorkflowType
	Guards      []Guard
	Start       models.NodeType
	Merge       models.MergePolicy
	ChildClosed ChildClosedFunc
}

var _ WorkflowDefinition = (*WorkflowSpec)(nil)

func (s *WorkflowSpec) Type() models.WorkflowType {
	return s.Name
}

func (s *WorkflowSpec) CreationGuard(startData models.Data) models.Messages {
	return RunGuards(s.Guards, startData)
}

func (s *WorkflowSpec) StartNode(models.Data) models.NodeType {
	return s.Start
}

// MergePolicy defaults to models.DeepMerge.
func (s *WorkflowSpec) MergePolicy() models.MergePolicy {
	if s.Merge == nil {
		return models.DeepMerge
	}

	return s.Merge
}

// OnChildClosed ignores the child unless ChildClosed is set.
func (s *WorkflowSpec) OnChildClosed(parent, child *models.WorkflowInstance) (models.Data, error) {
	if s.ChildClosed == nil {
		return nil, nil
	}

	return s.ChildClosed(parent, child)
}
