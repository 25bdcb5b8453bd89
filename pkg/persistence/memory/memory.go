// Package memory provides an in-process store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
)

// Persistence keeps encoded records in maps, so callers never share memory with the store.
type Persistence struct {
	mu        sync.RWMutex
	workflows map[string][]byte
	nodes     map[string][]byte
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows: make(map[string][]byte),
		nodes:     make(map[string][]byte),
	}
}

func workflowKey(t models.WorkflowType, id string) string {
	return string(t) + "/" + id
}

func nodeKey(t models.NodeType, id string) string {
	return string(t) + "/" + id
}

func (p *Persistence) FetchWorkflow(_ context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	p.mu.RLock()
	body, ok := p.workflows[workflowKey(workflowType, id)]
	p.mu.RUnlock()

	if !ok {
		return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, persistence.ErrWorkflowNotFound)
	}

	return persistence.DecodeWorkflow(body)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error {
	return p.SaveBatch(ctx, []*models.WorkflowInstance{workflow}, nil)
}

func (p *Persistence) FetchNode(_ context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	p.mu.RLock()
	body, ok := p.nodes[nodeKey(nodeType, id)]
	p.mu.RUnlock()

	if !ok {
		return nil, persistence.NewNodeError("Fetch", string(nodeType), id, persistence.ErrNodeNotFound)
	}

	return persistence.DecodeNode(body)
}

func (p *Persistence) SaveNode(ctx context.Context, node *models.NodeInstance) error {
	return p.SaveBatch(ctx, nil, []*models.NodeInstance{node})
}

// SaveBatch encodes every record before touching the maps, so a bad record leaves the store unchanged.
func (p *Persistence) SaveBatch(_ context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error {
	encodedWorkflows := make(map[string][]byte, len(workflows))

	for _, w := range workflows {
		if err := persistence.CheckWorkflow(w); err != nil {
			return err
		}

		body, err := persistence.EncodeWorkflow(w)
		if err != nil {
			return err
		}

		encodedWorkflows[workflowKey(w.WorkflowType, w.WorkflowInstanceID)] = body
	}

	encodedNodes := make(map[string][]byte, len(nodes))

	for _, n := range nodes {
		if err := persistence.CheckNode(n); err != nil {
			return err
		}

		body, err := persistence.EncodeNode(n)
		if err != nil {
			return err
		}

		encodedNodes[nodeKey(n.NodeType, n.NodeInstanceID)] = body
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for k, v := range encodedWorkflows {
		p.workflows[k] = v
	}

	for k, v := range encodedNodes {
		p.nodes[k] = v
	}

	return nil
}

// OverdueInputNodes returns overdue nodes ordered by deadline.
func (p *Persistence) OverdueInputNodes(_ context.Context, asOf time.Time) ([]*models.NodeInstance, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*models.NodeInstance

	for _, body := range p.nodes {
		n, err := persistence.DecodeNode(body)
		if err != nil {
			return nil, err
		}

		if persistence.IsOverdue(n, asOf) {
			out = append(out, n)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Input.Deadline.Before(out[j].Input.Deadline)
	})

	return out, nil
}

func (p *Persistence) HealthCheck(context.Context) error {
	return nil
}

func (p *Persistence) Close(context.Context) error {
	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
