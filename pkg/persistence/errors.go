// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidRecord indicates a record missing its type or identifier.
	ErrInvalidRecord = errors.New("invalid record")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op           string // Operation being performed (e.g., "Fetch", "Save")
	WorkflowType string
	WorkflowID   string
	Err          error // Underlying error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s/%s: %v", e.Op, e.WorkflowType, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowType, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:           op,
		WorkflowType: workflowType,
		WorkflowID:   workflowID,
		Err:          err,
	}
}

// NodeError wraps node-related errors with additional context.
type NodeError struct {
	Op       string // Operation being performed
	NodeType string
	NodeID   string
	Err      error // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s operation failed for node %s/%s: %v", e.Op, e.NodeType, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewNodeError creates a new node error with context.
func NewNodeError(op, nodeType, nodeID string, err error) *NodeError {
	return &NodeError{
		Op:       op,
		NodeType: nodeType,
		NodeID:   nodeID,
		Err:      err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
