package models

import (
	"errors"
	"slices"
	"time"
)

// InputStatus is the authorization state of a human-input node.
type InputStatus string

const (
	InputStatusReady   InputStatus = "ready"
	InputStatusStarted InputStatus = "started"
	InputStatusEnded   InputStatus = "ended"
)

var (
	// ErrWrongState indicates an operation not allowed in the current state.
	ErrWrongState = errors.New("wrong state")

	// ErrNotSameUser indicates the acting user is not the assigned user.
	ErrNotSameUser = errors.New("not the assigned user")
)

// NodeInstance is one step of a workflow.
type NodeInstance struct {
	NodeType           NodeType       `json:"node_type"`
	NodeInstanceID     string         `json:"node_instance_id"`
	WorkflowType       WorkflowType   `json:"workflow_type"`
	WorkflowInstanceID string         `json:"workflow_instance_id"`
	CreatedAt          time.Time      `json:"created_at"`
	ClosedAt           *time.Time     `json:"closed_at,omitempty"`
	ChildWorkflowTypes []WorkflowType `json:"child_workflow_types,omitempty"`
	Input              *InputState    `json:"input,omitempty"`
}

// InputState holds the fields of a node that waits for a staff member.
type InputState struct {
	StaffRole    string      `json:"staff_role"`
	AssignedUser *string     `json:"assigned_user,omitempty"`
	Status       InputStatus `json:"status"`
	SLAHours     float64     `json:"sla_hours"`
	Deadline     time.Time   `json:"deadline"`
}

// IsClosed reports whether the node has been submitted.
func (n *NodeInstance) IsClosed() bool {
	return n.ClosedAt != nil
}

// IsInput reports whether the node requires human input.
func (n *NodeInstance) IsInput() bool {
	return n.Input != nil
}

// Close stamps the closing time once. It reports false if the node was already closed.
func (n *NodeInstance) Close(at time.Time) bool {
	if n.ClosedAt != nil {
		return false
	}

	if at.Before(n.CreatedAt) {
		at = n.CreatedAt
	}

	n.ClosedAt = &at

	return true
}

// Snapshot returns a deep copy of the node.
func (n *NodeInstance) Snapshot() *NodeInstance {
	cp := *n
	cp.ChildWorkflowTypes = slices.Clone(n.ChildWorkflowTypes)

	if n.ClosedAt != nil {
		closed := *n.ClosedAt
		cp.ClosedAt = &closed
	}

	if n.Input != nil {
		input := *n.Input
		if n.Input.AssignedUser != nil {
			user := *n.Input.AssignedUser
			input.AssignedUser = &user
		}

		cp.Input = &input
	}

	return &cp
}

// Assignee returns the assigned user or an empty string.
func (s *InputState) Assignee() string {
	if s.AssignedUser == nil {
		return ""
	}

	return *s.AssignedUser
}

// RequireStatus fails with ErrWrongState unless the node is in the given status.
func (s *InputState) RequireStatus(status InputStatus) error {
	if s.Status != status {
		return ErrWrongState
	}

	return nil
}

// RequireAssignee fails with ErrNotSameUser unless user holds the node.
func (s *InputState) RequireAssignee(user string) error {
	if s.AssignedUser == nil || *s.AssignedUser != user {
		return ErrNotSameUser
	}

	return nil
}

// Start moves Ready to Started and assigns the user.
func (s *InputState) Start(user string) error {
	if err := s.RequireStatus(InputStatusReady); err != nil {
		return err
	}

	s.Status = InputStatusStarted
	s.AssignedUser = &user

	return nil
}

// Return moves Started back to Ready and releases the assignment.
func (s *InputState) Return(user string) error {
	if err := s.RequireStatus(InputStatusStarted); err != nil {
		return err
	}

	if err := s.RequireAssignee(user); err != nil {
		return err
	}

	s.Status = InputStatusReady
	s.AssignedUser = nil

	return nil
}

// End moves Started to the terminal Ended status.
func (s *InputState) End() error {
	if err := s.RequireStatus(InputStatusStarted); err != nil {
		return err
	}

	s.Status = InputStatusEnded
	s.AssignedUser = nil

	return nil
}

// IsOverdue reports whether an open input node has passed its deadline.
func (s *InputState) IsOverdue(now time.Time) bool {
	return s.Status != InputStatusEnded && now.After(s.Deadline)
}

// Terminate ends the node regardless of its status. Used when the workflow
// closes while the node is still waiting.
func (s *InputState) Terminate() {
	s.Status = InputStatusEnded
	s.AssignedUser = nil
}
