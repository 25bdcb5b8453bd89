package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/workdesk/workdesk/pkg/eventbus"
	"github.com/workdesk/workdesk/pkg/models"
)

// session is the unit of work behind one public operation. Records are read
// once from the store, mutated in place and written back together on commit.
type session struct {
	ctx context.Context
	r   *Router
	now time.Time

	locks   map[string]func()
	lockSeq []string

	workflows map[string]*models.WorkflowInstance
	nodes     map[string]*models.NodeInstance

	dirtyWorkflows []string
	dirtyNodes     []string
	dirty          map[string]bool

	events []pendingEvent
}

type pendingEvent struct {
	key   string
	event eventbus.Event
}

func newSession(ctx context.Context, r *Router) *session {
	return &session{
		ctx:       ctx,
		r:         r,
		now:       r.clock.Now(),
		locks:     make(map[string]func()),
		workflows: make(map[string]*models.WorkflowInstance),
		nodes:     make(map[string]*models.NodeInstance),
		dirty:     make(map[string]bool),
	}
}

func workflowKey(t models.WorkflowType, id string) string {
	return "workflow/" + string(t) + "/" + id
}

func nodeKey(t models.NodeType, id string) string {
	return "node/" + string(t) + "/" + id
}

// lock acquires the workflow lock once per session.
func (s *session) lock(t models.WorkflowType, id string) error {
	key := workflowKey(t, id)
	if _, held := s.locks[key]; held {
		return nil
	}

	unlock, err := s.r.locker.Lock(s.ctx, key)
	if err != nil {
		return err
	}

	s.locks[key] = unlock
	s.lockSeq = append(s.lockSeq, key)

	return nil
}

// release drops every lock in reverse acquisition order.
func (s *session) release() {
	for i := len(s.lockSeq) - 1; i >= 0; i-- {
		s.locks[s.lockSeq[i]]()
	}

	s.locks = nil
	s.lockSeq = nil
}

// workflow locks the instance and returns the session copy of it.
func (s *session) workflow(t models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	if err := s.lock(t, id); err != nil {
		return nil, err
	}

	key := workflowKey(t, id)
	if w, ok := s.workflows[key]; ok {
		return w, nil
	}

	w, err := s.r.store.FetchWorkflow(s.ctx, t, id)
	if err != nil {
		return nil, err
	}

	s.workflows[key] = w

	return w, nil
}

// node returns the session copy of a node. The caller must hold the lock of
// the owning workflow.
func (s *session) node(t models.NodeType, id string) (*models.NodeInstance, error) {
	key := nodeKey(t, id)
	if n, ok := s.nodes[key]; ok {
		return n, nil
	}

	n, err := s.r.store.FetchNode(s.ctx, t, id)
	if err != nil {
		return nil, err
	}

	s.nodes[key] = n

	return n, nil
}

// lockedNode resolves a node's owning workflow, locks it, then reads the node
// again so the copy reflects every commit made before the lock was taken.
func (s *session) lockedNode(t models.NodeType, id string) (*models.NodeInstance, *models.WorkflowInstance, error) {
	probe, err := s.r.store.FetchNode(s.ctx, t, id)
	if err != nil {
		return nil, nil, err
	}

	w, err := s.workflow(probe.WorkflowType, probe.WorkflowInstanceID)
	if err != nil {
		return nil, nil, err
	}

	n, err := s.node(t, id)
	if err != nil {
		return nil, nil, err
	}

	if n.WorkflowInstanceID != w.WorkflowInstanceID {
		return nil, nil, errors.New("node moved between workflows")
	}

	return n, w, nil
}

func (s *session) putWorkflow(w *models.WorkflowInstance) {
	key := workflowKey(w.WorkflowType, w.WorkflowInstanceID)
	s.workflows[key] = w

	if !s.dirty[key] {
		s.dirty[key] = true
		s.dirtyWorkflows = append(s.dirtyWorkflows, key)
	}
}

func (s *session) putNode(n *models.NodeInstance) {
	key := nodeKey(n.NodeType, n.NodeInstanceID)
	s.nodes[key] = n

	if !s.dirty[key] {
		s.dirty[key] = true
		s.dirtyNodes = append(s.dirtyNodes, key)
	}
}

func (s *session) emit(key string, event eventbus.Event) {
	s.events = append(s.events, pendingEvent{key: key, event: event})
}

// commit writes every changed record in one batch. Nothing is written when
// the operation changed nothing.
func (s *session) commit() error {
	if len(s.dirtyWorkflows) == 0 && len(s.dirtyNodes) == 0 {
		return nil
	}

	workflows := make([]*models.WorkflowInstance, 0, len(s.dirtyWorkflows))
	for _, key := range s.dirtyWorkflows {
		workflows = append(workflows, s.workflows[key])
	}

	nodes := make([]*models.NodeInstance, 0, len(s.dirtyNodes))
	for _, key := range s.dirtyNodes {
		nodes = append(nodes, s.nodes[key])
	}

	return s.r.store.SaveBatch(s.ctx, workflows, nodes)
}

// publish sends the buffered events. Delivery failures are logged and do not
// undo the committed change.
func (s *session) publish() {
	for _, pe := range s.events {
		if err := s.r.publisher.Publish(s.ctx, pe.key, pe.event); err != nil {
			s.r.logger.WarnContext(s.ctx, "Failed to publish event",
				"event_type", pe.event.GetType(),
				"key", pe.key,
				"error", err)
		}
	}
}
