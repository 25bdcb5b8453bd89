// Package models defines the persisted records of the workflow engine.
package models

import (
	"maps"
	"slices"
	"time"
)

// WorkflowType names a registered workflow behaviour.
type WorkflowType string

// NodeType names a registered node behaviour.
type NodeType string

// ParentRef links a child workflow back to the node that spawned it.
// It is a lookup key only, never a live reference.
type ParentRef struct {
	WorkflowType       WorkflowType `json:"workflow_type"`
	WorkflowInstanceID string       `json:"workflow_instance_id"`
	FromNodeType       NodeType     `json:"from_node_type"`
	FromNodeInstanceID string       `json:"from_node_instance_id"`
}

// WorkflowInstance is one run of a business process.
type WorkflowInstance struct {
	WorkflowType       WorkflowType `json:"workflow_type"`
	WorkflowInstanceID string       `json:"workflow_instance_id"`
	CreatedAt          time.Time    `json:"created_at"`
	ClosedAt           *time.Time   `json:"closed_at,omitempty"`
	BusinessData       Data         `json:"business_data"`
	Parent             *ParentRef   `json:"parent,omitempty"`
	NodeHistory        []string     `json:"node_history"`
	ActiveNodes        []string     `json:"active_nodes"`
	NodeTypes          NodeIndex    `json:"node_types"`
	Audit              []AuditEntry `json:"audit,omitempty"`
}

// IsClosed reports whether the workflow has been closed.
func (w *WorkflowInstance) IsClosed() bool {
	return w.ClosedAt != nil
}

// IsChild reports whether the workflow was spawned by another workflow.
func (w *WorkflowInstance) IsChild() bool {
	return w.Parent != nil
}

// NodeIndex maps node instance ids to their types so records can be fetched by id.
type NodeIndex map[string]NodeType

// AddNode appends a node to the history and marks it active.
func (w *WorkflowInstance) AddNode(nodeType NodeType, nodeInstanceID string) {
	w.NodeHistory = append(w.NodeHistory, nodeInstanceID)

	if w.NodeTypes == nil {
		w.NodeTypes = make(NodeIndex)
	}

	w.NodeTypes[nodeInstanceID] = nodeType

	if !slices.Contains(w.ActiveNodes, nodeInstanceID) {
		w.ActiveNodes = append(w.ActiveNodes, nodeInstanceID)
	}
}

// RemoveFromActive drops a node from the active set. History is untouched.
func (w *WorkflowInstance) RemoveFromActive(nodeInstanceID string) {
	w.ActiveNodes = slices.DeleteFunc(w.ActiveNodes, func(id string) bool {
		return id == nodeInstanceID
	})
}

// IsActive reports whether the node is currently open in this workflow.
func (w *WorkflowInstance) IsActive(nodeInstanceID string) bool {
	return slices.Contains(w.ActiveNodes, nodeInstanceID)
}

// Record appends an audit entry.
func (w *WorkflowInstance) Record(at time.Time, user string, action AuditAction, text string) {
	w.Audit = append(w.Audit, AuditEntry{
		Timestamp: at,
		User:      user,
		Action:    action,
		Text:      text,
	})
}

// Snapshot returns a deep copy that callers may read freely.
func (w *WorkflowInstance) Snapshot() *WorkflowInstance {
	cp := *w
	cp.BusinessData = Clone(w.BusinessData)
	cp.NodeHistory = slices.Clone(w.NodeHistory)
	cp.ActiveNodes = slices.Clone(w.ActiveNodes)
	cp.Audit = slices.Clone(w.Audit)
	cp.NodeTypes = maps.Clone(w.NodeTypes)

	if w.ClosedAt != nil {
		closed := *w.ClosedAt
		cp.ClosedAt = &closed
	}

	if w.Parent != nil {
		parent := *w.Parent
		cp.Parent = &parent
	}

	return &cp
}
