package workflow

import (
	"context"
	"fmt"

	"github.com/workdesk/workdesk/pkg/events"
	"github.com/workdesk/workdesk/pkg/models"
)

// SubmitResult describes the state after a node submission.
type SubmitResult struct {
	Node       *models.NodeInstance
	Workflow   *models.WorkflowInstance
	Next       []models.NodeType
	Successors []*models.NodeInstance
	Children   []*models.WorkflowInstance
}

// CreateWorkflow creates a workflow and its start node. Automatic start
// nodes run before the call returns.
func (r *Router) CreateWorkflow(
	ctx context.Context,
	workflowType models.WorkflowType,
	startData models.Data,
	parent *models.ParentRef,
) (*models.WorkflowInstance, error) {
	var created *models.WorkflowInstance

	err := r.run(ctx, "create", string(workflowType), "", func(s *session) error {
		w, err := s.createWorkflow(workflowType, startData, parent, models.SystemUser, 0)
		if err != nil {
			return err
		}

		created = w

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Created workflow",
		"workflow_type", created.WorkflowType,
		"workflow_id", created.WorkflowInstanceID)

	return created.Snapshot(), nil
}

// Start assigns a ready input node to user.
func (r *Router) Start(ctx context.Context, nodeType models.NodeType, nodeID, user string) (*models.NodeInstance, error) {
	var started *models.NodeInstance

	err := r.run(ctx, "start", string(nodeType), nodeID, func(s *session) error {
		n, w, err := s.lockedNode(nodeType, nodeID)
		if err != nil {
			return err
		}

		if err := s.authorizeInput(n, user, models.InputStatusReady, false); err != nil {
			return err
		}

		if err := n.Input.Start(user); err != nil {
			return err
		}

		w.Record(s.now, user, models.AuditNodeStarted, fmt.Sprintf("%s started", n.NodeType))
		s.putNode(n)
		s.putWorkflow(w)
		s.emit(w.WorkflowInstanceID, events.NodeStarted{
			NodeEvent: events.NewNodeEvent(events.NodeStartedEvent, n, user, s.now),
		})

		started = n

		return nil
	})
	if err != nil {
		return nil, err
	}

	return started.Snapshot(), nil
}

// Return hands a started input node back to the queue.
func (r *Router) Return(ctx context.Context, nodeType models.NodeType, nodeID, user string) (*models.NodeInstance, error) {
	var returned *models.NodeInstance

	err := r.run(ctx, "return", string(nodeType), nodeID, func(s *session) error {
		n, w, err := s.lockedNode(nodeType, nodeID)
		if err != nil {
			return err
		}

		if err := s.authorizeInput(n, user, models.InputStatusStarted, true); err != nil {
			return err
		}

		if err := n.Input.Return(user); err != nil {
			return err
		}

		w.Record(s.now, user, models.AuditNodeReturned, fmt.Sprintf("%s returned", n.NodeType))
		s.putNode(n)
		s.putWorkflow(w)
		s.emit(w.WorkflowInstanceID, events.NodeReturned{
			NodeEvent: events.NewNodeEvent(events.NodeReturnedEvent, n, user, s.now),
		})

		returned = n

		return nil
	})
	if err != nil {
		return nil, err
	}

	return returned.Snapshot(), nil
}

// Submit completes a node with data. Input nodes must be started by user first.
func (r *Router) Submit(
	ctx context.Context,
	nodeType models.NodeType,
	nodeID, user string,
	data models.Data,
) (*SubmitResult, error) {
	var out *SubmitResult

	err := r.run(ctx, "submit", string(nodeType), nodeID, func(s *session) error {
		n, w, err := s.lockedNode(nodeType, nodeID)
		if err != nil {
			return err
		}

		if n.IsInput() {
			if err := s.authorizeInput(n, user, models.InputStatusStarted, true); err != nil {
				return err
			}
		}

		res, err := s.submitNode(n, w, data, user, 0)
		if err != nil {
			return err
		}

		out = &SubmitResult{
			Node:       n,
			Workflow:   w,
			Next:       res.next,
			Successors: res.successors,
			Children:   res.children,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Submitted node",
		"node_type", nodeType,
		"node_id", nodeID,
		"workflow_id", out.Workflow.WorkflowInstanceID,
		"next", out.Next,
		"closed", out.Workflow.IsClosed())

	return out.snapshot(), nil
}

// CloseWorkflow closes a workflow and every node still open in it. Only
// holders of the admin role may call it. Closing a closed workflow succeeds
// without changing anything.
func (r *Router) CloseWorkflow(
	ctx context.Context,
	workflowType models.WorkflowType,
	workflowID, user string,
) (*models.WorkflowInstance, error) {
	var closed *models.WorkflowInstance

	err := r.run(ctx, "close", string(workflowType), workflowID, func(s *session) error {
		if err := s.requireRole(user, r.adminRole); err != nil {
			return err
		}

		w, err := s.workflow(workflowType, workflowID)
		if err != nil {
			return err
		}

		if err := s.closeWorkflow(w, user); err != nil {
			return err
		}

		closed = w

		return nil
	})
	if err != nil {
		return nil, err
	}

	return closed.Snapshot(), nil
}

// authorizeInput checks state first, then the staff role, then the assignee.
func (s *session) authorizeInput(n *models.NodeInstance, user string, want models.InputStatus, sameUser bool) error {
	if !n.IsInput() {
		return fmt.Errorf("%w: node %s takes no input", ErrWrongState, n.NodeType)
	}

	if n.IsClosed() {
		return fmt.Errorf("%w: node %s is closed", ErrWrongState, n.NodeInstanceID)
	}

	if err := n.Input.RequireStatus(want); err != nil {
		return fmt.Errorf("%w: node is %s", err, n.Input.Status)
	}

	if err := s.requireRole(user, n.Input.StaffRole); err != nil {
		return err
	}

	if sameUser {
		if err := n.Input.RequireAssignee(user); err != nil {
			return fmt.Errorf("%w: node held by %s", err, n.Input.Assignee())
		}
	}

	return nil
}

func (s *session) requireRole(user, role string) error {
	ok, err := s.r.auth.UserHasRole(s.ctx, user, role)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	if !ok {
		return fmt.Errorf("%w: %s lacks role %s", ErrNotAuthorized, user, role)
	}

	return nil
}

func (res *SubmitResult) snapshot() *SubmitResult {
	out := &SubmitResult{
		Node:     res.Node.Snapshot(),
		Workflow: res.Workflow.Snapshot(),
		Next:     res.Next,
	}

	for _, n := range res.Successors {
		out.Successors = append(out.Successors, n.Snapshot())
	}

	for _, c := range res.Children {
		out.Children = append(out.Children, c.Snapshot())
	}

	return out
}
