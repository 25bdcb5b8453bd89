// Package web provides HTTP request and response types for the workdesk API.
package web

import (
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/workflow"
)

// ParentRequest links a new workflow to the node that spawns it.
type ParentRequest struct {
	WorkflowType       string `json:"workflow_type"         validate:"required"`
	WorkflowInstanceID string `json:"workflow_instance_id"  validate:"required"`
	FromNodeType       string `json:"from_node_type"        validate:"required"`
	FromNodeInstanceID string `json:"from_node_instance_id" validate:"required"`
}

// CreateWorkflowRequest represents the request body for creating a workflow instance.
type CreateWorkflowRequest struct {
	Data   map[string]any `json:"data"`
	Parent *ParentRequest `json:"parent,omitempty"`
}

// UserRequest names the acting user for start, return and close.
type UserRequest struct {
	User string `json:"user" validate:"required"`
}

// SubmitNodeRequest represents the request body for completing a node.
type SubmitNodeRequest struct {
	User string         `json:"user" validate:"required"`
	Data map[string]any `json:"data"`
}

// SubmitNodeResponse describes the state after a submission.
type SubmitNodeResponse struct {
	Node       *models.NodeInstance       `json:"node"`
	Workflow   *models.WorkflowInstance   `json:"workflow"`
	Next       []models.NodeType          `json:"next"`
	Successors []*models.NodeInstance     `json:"successors"`
	Children   []*models.WorkflowInstance `json:"children"`
}

func (p *ParentRequest) ref() *models.ParentRef {
	if p == nil {
		return nil
	}

	return &models.ParentRef{
		WorkflowType:       models.WorkflowType(p.WorkflowType),
		WorkflowInstanceID: p.WorkflowInstanceID,
		FromNodeType:       models.NodeType(p.FromNodeType),
		FromNodeInstanceID: p.FromNodeInstanceID,
	}
}

func newSubmitNodeResponse(res *workflow.SubmitResult) SubmitNodeResponse {
	out := SubmitNodeResponse{
		Node:       res.Node,
		Workflow:   res.Workflow,
		Next:       res.Next,
		Successors: res.Successors,
		Children:   res.Children,
	}

	if out.Next == nil {
		out.Next = []models.NodeType{}
	}

	if out.Successors == nil {
		out.Successors = []*models.NodeInstance{}
	}

	if out.Children == nil {
		out.Children = []*models.WorkflowInstance{}
	}

	return out
}
