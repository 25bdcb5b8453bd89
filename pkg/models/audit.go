package models

import "time"

// AuditAction is the kind of change recorded in a workflow audit trail.
type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditNodeCreated   AuditAction = "node_created"
	AuditNodeStarted   AuditAction = "node_started"
	AuditNodeReturned  AuditAction = "node_returned"
	AuditNodeSubmitted AuditAction = "node_submitted"
	AuditChildClosed   AuditAction = "child_closed"
	AuditClosed        AuditAction = "closed"
)

// SystemUser is recorded for changes not driven by a person.
const SystemUser = "system"

// AuditEntry is one line of a workflow audit trail.
type AuditEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	User      string      `json:"user"`
	Action    AuditAction `json:"action"`
	Text      string      `json:"text"`
}
