// Package sla reports input nodes that have passed their deadline.
package sla

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/workdesk/workdesk/pkg/eventbus"
	"github.com/workdesk/workdesk/pkg/events"
	"github.com/workdesk/workdesk/pkg/persistence"
)

// Clock supplies the scan time.
type Clock interface {
	Now() time.Time
}

// Watcher scans the store on a cron schedule and publishes one
// NodeSLABreached event per overdue node and deadline.
type Watcher struct {
	store     persistence.Persistence
	publisher eventbus.EventPublisher
	clock     Clock
	logger    *slog.Logger
	schedule  string

	cron     *cron.Cron
	mutex    sync.Mutex
	reported map[string]time.Time
}

// NewWatcher validates schedule, a standard cron expression or descriptor
// such as "@every 5m".
func NewWatcher(
	store persistence.Persistence,
	publisher eventbus.EventPublisher,
	clock Clock,
	logger *slog.Logger,
	schedule string,
) (*Watcher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sla schedule '%s': %w", schedule, err)
	}

	return &Watcher{
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("module", "sla_watcher"),
		schedule:  schedule,
		reported:  make(map[string]time.Time),
	}, nil
}

// Start runs Scan on the schedule until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := w.cron.AddFunc(w.schedule, func() {
		if _, err := w.Scan(ctx); err != nil {
			w.logger.ErrorContext(ctx, "SLA scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add sla job: %w", err)
	}

	w.cron.Start()
	w.logger.InfoContext(ctx, "SLA watcher started", "schedule", w.schedule, "entry_id", entryID)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}

// Stop halts the schedule and waits for a running scan.
func (w *Watcher) Stop() {
	if w.cron == nil {
		return
	}

	<-w.cron.Stop().Done()
	w.logger.Info("SLA watcher stopped")
}

// Scan publishes breaches not yet reported and returns how many it published.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	now := w.clock.Now()

	nodes, err := w.store.OverdueInputNodes(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("overdue input nodes: %w", err)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	seen := make(map[string]bool, len(nodes))
	published := 0

	for _, n := range nodes {
		key := string(n.NodeType) + "/" + n.NodeInstanceID
		seen[key] = true

		if last, ok := w.reported[key]; ok && last.Equal(n.Input.Deadline) {
			continue
		}

		event := events.NodeSLABreached{
			NodeEvent: events.NewNodeEvent(events.NodeSLABreachedEvent, n, n.Input.Assignee(), now),
			StaffRole: n.Input.StaffRole,
			Deadline:  n.Input.Deadline,
			Overdue:   now.Sub(n.Input.Deadline),
		}

		if err := w.publisher.Publish(ctx, n.WorkflowInstanceID, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish SLA breach", "node_id", n.NodeInstanceID, "error", err)

			continue
		}

		w.reported[key] = n.Input.Deadline
		published++

		w.logger.InfoContext(ctx, "SLA breached",
			"node_type", n.NodeType,
			"node_id", n.NodeInstanceID,
			"workflow_id", n.WorkflowInstanceID,
			"staff_role", n.Input.StaffRole,
			"overdue", event.Overdue)
	}

	for key := range w.reported {
		if !seen[key] {
			delete(w.reported, key)
		}
	}

	return published, nil
}
