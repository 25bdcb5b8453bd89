package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/workdesk/workdesk/pkg/events"
	"github.com/workdesk/workdesk/pkg/models"
)

// normalize converts submitted data into the stored representation, turning
// unsupported values into a validation failure.
func normalize(data models.Data) (models.Data, error) {
	out, err := models.Normalize(data)
	if err != nil {
		var unsupported *models.UnsupportedValueError
		if errors.As(err, &unsupported) {
			return nil, newValidationError(models.Messages{
				models.Errorf("data.unsupported_type", "%s", unsupported.Error()),
			})
		}

		return nil, err
	}

	return out, nil
}

func (s *session) createWorkflow(
	workflowType models.WorkflowType,
	startData models.Data,
	parent *models.ParentRef,
	user string,
	depth int,
) (*models.WorkflowInstance, error) {
	def, err := s.r.registry.Workflow(workflowType)
	if err != nil {
		return nil, err
	}

	data, err := normalize(startData)
	if err != nil {
		return nil, err
	}

	if msgs := def.CreationGuard(data); msgs.HasErrors() {
		return nil, newValidationError(msgs)
	}

	if parent != nil {
		if err := s.checkParent(workflowType, parent); err != nil {
			return nil, err
		}

		ref := *parent
		parent = &ref
	}

	w := &models.WorkflowInstance{
		WorkflowType:       workflowType,
		WorkflowInstanceID: s.r.ids.NewInstanceID(),
		CreatedAt:          s.now,
		BusinessData:       data,
		Parent:             parent,
		NodeHistory:        []string{},
		ActiveNodes:        []string{},
		NodeTypes:          models.NodeIndex{},
	}

	if err := s.lock(w.WorkflowType, w.WorkflowInstanceID); err != nil {
		return nil, err
	}

	w.Record(s.now, user, models.AuditCreated, fmt.Sprintf("%s created", workflowType))
	s.putWorkflow(w)
	s.emit(w.WorkflowInstanceID, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, w.WorkflowType, w.WorkflowInstanceID, s.now),
		Parent:    parent,
	})

	start := def.StartNode(data)
	if start == "" {
		return nil, fmt.Errorf("%w: workflow %s names no start node", ErrUnknownNodeType, workflowType)
	}

	if _, err := s.spawn(w, []models.NodeType{start}, depth); err != nil {
		return nil, err
	}

	s.r.logger.DebugContext(s.ctx, "Workflow created",
		"workflow_type", w.WorkflowType,
		"workflow_id", w.WorkflowInstanceID,
		"child", w.IsChild())

	return w, nil
}

// checkParent accepts a parent reference only when it names a node of the
// parent workflow whose type spawns workflowType.
func (s *session) checkParent(workflowType models.WorkflowType, parent *models.ParentRef) error {
	p, err := s.workflow(parent.WorkflowType, parent.WorkflowInstanceID)
	if err != nil {
		return fmt.Errorf("parent workflow: %w", err)
	}

	nodeType, ok := p.NodeTypes[parent.FromNodeInstanceID]
	if !ok || nodeType != parent.FromNodeType {
		return fmt.Errorf("%w: %w: %s %s is not a node of %s %s", ErrInvalidParent, ErrNodeNotFound,
			parent.FromNodeType, parent.FromNodeInstanceID, p.WorkflowType, p.WorkflowInstanceID)
	}

	def, err := s.r.registry.Node(nodeType)
	if err != nil {
		return err
	}

	if !slices.Contains(def.ChildWorkflowTypes(), workflowType) {
		return fmt.Errorf("%w: node type %s does not spawn %s", ErrInvalidParent, nodeType, workflowType)
	}

	return nil
}

// spawn creates every node type first and only then runs the automatic ones,
// so a closing auto chain sees all of its siblings.
func (s *session) spawn(w *models.WorkflowInstance, nodeTypes []models.NodeType, depth int) ([]*models.NodeInstance, error) {
	created := make([]*models.NodeInstance, 0, len(nodeTypes))

	for _, nt := range nodeTypes {
		n, err := s.createNode(w, nt)
		if err != nil {
			return nil, err
		}

		created = append(created, n)
	}

	for _, n := range created {
		def, err := s.r.registry.Node(n.NodeType)
		if err != nil {
			return nil, err
		}

		if !def.Auto() || n.IsClosed() || w.IsClosed() {
			continue
		}

		if depth >= MaxAutoChain {
			return nil, fmt.Errorf("%w: %d automatic nodes after %s", ErrRoutingLoop, depth, n.NodeType)
		}

		if _, err := s.submitNode(n, w, models.Data{}, models.SystemUser, depth+1); err != nil {
			return nil, err
		}
	}

	return created, nil
}

func (s *session) createNode(w *models.WorkflowInstance, nodeType models.NodeType) (*models.NodeInstance, error) {
	def, err := s.r.registry.Node(nodeType)
	if err != nil {
		return nil, err
	}

	if msgs := def.CreationGuard(models.Clone(w.BusinessData)); msgs.HasErrors() {
		return nil, newValidationError(msgs)
	}

	n := &models.NodeInstance{
		NodeType:           nodeType,
		NodeInstanceID:     s.r.ids.NewInstanceID(),
		WorkflowType:       w.WorkflowType,
		WorkflowInstanceID: w.WorkflowInstanceID,
		CreatedAt:          s.now,
		ChildWorkflowTypes: slices.Clone(def.ChildWorkflowTypes()),
	}

	created := events.NodeCreated{
		NodeEvent: events.NewNodeEvent(events.NodeCreatedEvent, n, "", s.now),
	}

	if spec := def.Input(); spec != nil {
		n.Input = &models.InputState{
			StaffRole: spec.StaffRole,
			Status:    models.InputStatusReady,
			SLAHours:  spec.SLAHours,
			Deadline:  s.r.clock.AddWorkingHours(spec.SLAHours),
		}

		deadline := n.Input.Deadline
		created.StaffRole = spec.StaffRole
		created.Deadline = &deadline
	}

	w.AddNode(n.NodeType, n.NodeInstanceID)
	w.Record(s.now, models.SystemUser, models.AuditNodeCreated, fmt.Sprintf("%s created", nodeType))

	s.putNode(n)
	s.putWorkflow(w)
	s.emit(w.WorkflowInstanceID, created)

	return n, nil
}

// submitResult lists what a submission created.
type submitResult struct {
	next       []models.NodeType
	successors []*models.NodeInstance
	children   []*models.WorkflowInstance
}

// submitNode completes a node: validate, merge, route, spawn children and
// successors, or close the workflow when nothing follows.
func (s *session) submitNode(
	n *models.NodeInstance,
	w *models.WorkflowInstance,
	data models.Data,
	user string,
	depth int,
) (*submitResult, error) {
	if n.IsClosed() || w.IsClosed() || !w.IsActive(n.NodeInstanceID) {
		return nil, fmt.Errorf("%w: node %s is closed", ErrWrongState, n.NodeInstanceID)
	}

	def, err := s.r.registry.Node(n.NodeType)
	if err != nil {
		return nil, err
	}

	wdef, err := s.r.registry.Workflow(w.WorkflowType)
	if err != nil {
		return nil, err
	}

	submitted, err := normalize(data)
	if err != nil {
		return nil, err
	}

	if msgs := def.ValidateSubmission(models.Clone(w.BusinessData), submitted); msgs.HasErrors() {
		return nil, newValidationError(msgs)
	}

	merge := def.MergePolicy()
	if merge == nil {
		merge = wdef.MergePolicy()
	}

	if merge == nil {
		merge = models.DeepMerge
	}

	w.BusinessData = merge(w.BusinessData, submitted)

	n.Close(s.now)
	w.RemoveFromActive(n.NodeInstanceID)

	if n.Input != nil {
		if err := n.Input.End(); err != nil {
			return nil, err
		}
	}

	w.Record(s.now, user, models.AuditNodeSubmitted, fmt.Sprintf("%s submitted", n.NodeType))
	s.putNode(n)
	s.putWorkflow(w)

	result := &submitResult{next: def.Routes().Next(w.BusinessData)}

	for _, childType := range n.ChildWorkflowTypes {
		child, err := s.createWorkflow(childType, models.Clone(w.BusinessData), &models.ParentRef{
			WorkflowType:       w.WorkflowType,
			WorkflowInstanceID: w.WorkflowInstanceID,
			FromNodeType:       n.NodeType,
			FromNodeInstanceID: n.NodeInstanceID,
		}, user, depth)
		if err != nil {
			return nil, fmt.Errorf("child workflow %s: %w", childType, err)
		}

		result.children = append(result.children, child)
	}

	s.emit(w.WorkflowInstanceID, events.NodeSubmitted{
		NodeEvent: events.NewNodeEvent(events.NodeSubmittedEvent, n, user, s.now),
		Next:      result.next,
	})

	if len(result.next) > 0 {
		result.successors, err = s.spawn(w, result.next, depth)
		if err != nil {
			return nil, err
		}

		return result, nil
	}

	// Parallel branches keep the workflow open until the last one finishes.
	if len(w.ActiveNodes) == 0 {
		if err := s.closeWorkflow(w, user); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// closeWorkflow closes w and its open nodes, then notifies the parent once.
// Closing a closed workflow does nothing.
func (s *session) closeWorkflow(w *models.WorkflowInstance, user string) error {
	if w.IsClosed() {
		return nil
	}

	for _, id := range slices.Clone(w.ActiveNodes) {
		nodeType, ok := w.NodeTypes[id]
		if !ok {
			return fmt.Errorf("%w: active node %s has no recorded type", ErrNodeNotFound, id)
		}

		n, err := s.node(nodeType, id)
		if err != nil {
			return err
		}

		if n.Close(s.now) {
			if n.Input != nil {
				n.Input.Terminate()
			}

			s.putNode(n)
		}

		w.RemoveFromActive(id)
	}

	closedAt := s.now
	if closedAt.Before(w.CreatedAt) {
		closedAt = w.CreatedAt
	}

	w.ClosedAt = &closedAt
	w.Record(s.now, user, models.AuditClosed, fmt.Sprintf("%s closed", w.WorkflowType))
	s.putWorkflow(w)
	s.emit(w.WorkflowInstanceID, events.WorkflowClosed{
		BaseEvent: events.NewBaseEvent(events.WorkflowClosedEvent, w.WorkflowType, w.WorkflowInstanceID, s.now),
		ClosedBy:  user,
		Parent:    w.Parent,
	})

	if w.Parent == nil {
		return nil
	}

	return s.notifyParent(w, user)
}

func (s *session) notifyParent(child *models.WorkflowInstance, user string) error {
	parent, err := s.workflow(child.Parent.WorkflowType, child.Parent.WorkflowInstanceID)
	if err != nil {
		return fmt.Errorf("parent workflow: %w", err)
	}

	def, err := s.r.registry.Workflow(parent.WorkflowType)
	if err != nil {
		return err
	}

	delta, err := def.OnChildClosed(parent.Snapshot(), child.Snapshot())
	if err != nil {
		return fmt.Errorf("child closed hook: %w", err)
	}

	if delta != nil {
		normalized, err := normalize(delta)
		if err != nil {
			return err
		}

		merge := def.MergePolicy()
		if merge == nil {
			merge = models.DeepMerge
		}

		parent.BusinessData = merge(parent.BusinessData, normalized)
	}

	parent.Record(s.now, user, models.AuditChildClosed,
		fmt.Sprintf("%s %s closed", child.WorkflowType, child.WorkflowInstanceID))
	s.putWorkflow(parent)

	return nil
}
