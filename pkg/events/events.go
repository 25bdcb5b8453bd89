// Package events defines the lifecycle notifications emitted after a workflow change is committed.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/workdesk/workdesk/pkg/models"
)

type EventType string

// Topic is the single watermill topic all lifecycle events are published on.
const Topic = "workdesk.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowClosedEvent  EventType = "workflow.closed"

	// Node lifecycle events.
	NodeCreatedEvent     EventType = "node.created"
	NodeStartedEvent     EventType = "node.started"
	NodeReturnedEvent    EventType = "node.returned"
	NodeSubmittedEvent   EventType = "node.submitted"
	NodeSLABreachedEvent EventType = "node.sla_breached"
)

type BaseEvent struct {
	ID                 string              `json:"id"`
	Type               EventType           `json:"type"`
	Timestamp          time.Time           `json:"timestamp"`
	WorkflowType       models.WorkflowType `json:"workflow_type"`
	WorkflowInstanceID string              `json:"workflow_instance_id"`
	Metadata           map[string]any      `json:"metadata,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	Parent *models.ParentRef `json:"parent,omitempty"`
}

func (e WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowClosed struct {
	BaseEvent

	ClosedBy string            `json:"closed_by"`
	Parent   *models.ParentRef `json:"parent,omitempty"`
}

func (e WorkflowClosed) GetType() EventType {
	return WorkflowClosedEvent
}

// NodeEvent carries the fields shared by every node notification.
type NodeEvent struct {
	BaseEvent

	NodeType       models.NodeType `json:"node_type"`
	NodeInstanceID string          `json:"node_instance_id"`
	User           string          `json:"user,omitempty"`
}

type NodeCreated struct {
	NodeEvent

	StaffRole string     `json:"staff_role,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

func (e NodeCreated) GetType() EventType {
	return NodeCreatedEvent
}

type NodeStarted struct {
	NodeEvent
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeReturned struct {
	NodeEvent
}

func (e NodeReturned) GetType() EventType {
	return NodeReturnedEvent
}

type NodeSubmitted struct {
	NodeEvent

	Next []models.NodeType `json:"next,omitempty"`
}

func (e NodeSubmitted) GetType() EventType {
	return NodeSubmittedEvent
}

type NodeSLABreached struct {
	NodeEvent

	StaffRole string        `json:"staff_role"`
	Deadline  time.Time     `json:"deadline"`
	Overdue   time.Duration `json:"overdue"`
}

func (e NodeSLABreached) GetType() EventType {
	return NodeSLABreachedEvent
}

func NewBaseEvent(eventType EventType, workflowType models.WorkflowType, workflowID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:                 uuid.New().String(),
		Type:               eventType,
		Timestamp:          at.UTC(),
		WorkflowType:       workflowType,
		WorkflowInstanceID: workflowID,
		Metadata:           make(map[string]any),
	}
}

// NewNodeEvent fills the shared node fields from a node record.
func NewNodeEvent(eventType EventType, node *models.NodeInstance, user string, at time.Time) NodeEvent {
	return NodeEvent{
		BaseEvent:      NewBaseEvent(eventType, node.WorkflowType, node.WorkflowInstanceID, at),
		NodeType:       node.NodeType,
		NodeInstanceID: node.NodeInstanceID,
		User:           user,
	}
}
