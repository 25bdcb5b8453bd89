// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workdesk/workdesk/pkg/clock"
	"github.com/workdesk/workdesk/pkg/eventbus"
	"github.com/workdesk/workdesk/pkg/events"
	"github.com/workdesk/workdesk/pkg/models"
)

// Monday is a working-day morning used as the default test time.
var Monday = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ManualClock returns a clock stopped at Monday with the default calendar.
func ManualClock() *clock.Manual {
	return clock.NewManual(Monday, clock.DefaultCalendar())
}

// CreateTestWorkflow creates an open WorkflowInstance with default values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.WorkflowInstance)) *models.WorkflowInstance {
	w := &models.WorkflowInstance{
		WorkflowType:       "DocVerify",
		WorkflowInstanceID: uuid.NewString(),
		CreatedAt:          Monday,
		BusinessData:       models.Data{"applicant": "A"},
		NodeHistory:        []string{},
		ActiveNodes:        []string{},
		NodeTypes:          models.NodeIndex{},
	}

	for _, override := range overrides {
		override(w)
	}

	return w
}

// WithNode adds an active node to the workflow.
func WithNode(n *models.NodeInstance) func(*models.WorkflowInstance) {
	return func(w *models.WorkflowInstance) {
		n.WorkflowType = w.WorkflowType
		n.WorkflowInstanceID = w.WorkflowInstanceID
		w.AddNode(n.NodeType, n.NodeInstanceID)
	}
}

// CreateTestInputNode creates a Ready input node with default values that can be overridden.
func CreateTestInputNode(overrides ...func(*models.NodeInstance)) *models.NodeInstance {
	n := &models.NodeInstance{
		NodeType:           "Review",
		NodeInstanceID:     uuid.NewString(),
		WorkflowType:       "DocVerify",
		WorkflowInstanceID: uuid.NewString(),
		CreatedAt:          Monday,
		Input: &models.InputState{
			StaffRole: "reviewer",
			Status:    models.InputStatusReady,
			SLAHours:  8,
			Deadline:  Monday.Add(8 * time.Hour),
		},
	}

	for _, override := range overrides {
		override(n)
	}

	return n
}

// WithDeadline sets the input deadline.
func WithDeadline(deadline time.Time) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Input.Deadline = deadline
	}
}

// WithAssignee starts the input node for user.
func WithAssignee(user string) func(*models.NodeInstance) {
	return func(n *models.NodeInstance) {
		n.Input.Status = models.InputStatusStarted
		n.Input.AssignedUser = &user
	}
}

// Recorder is an event publisher that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []eventbus.Event
	keys   []string
}

var _ eventbus.EventPublisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, key string, event eventbus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	r.keys = append(r.keys, key)

	return nil
}

// Events returns the recorded events in publish order.
func (r *Recorder) Events() []eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]eventbus.Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.GetType()
	}

	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t events.EventType) int {
	n := 0

	for _, got := range r.Types() {
		if got == t {
			n++
		}
	}

	return n
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
	r.keys = nil
}
