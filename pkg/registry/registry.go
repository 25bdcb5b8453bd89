// Package registry holds the process-wide table of workflow and node definitions.
// The table is filled at startup and sealed on first lookup.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/protocol"
)

var (
	// ErrUnknownWorkflowType indicates no definition is registered for a workflow type.
	ErrUnknownWorkflowType = errors.New("unknown workflow type")

	// ErrUnknownNodeType indicates no definition is registered for a node type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrRegistrySealed indicates a registration after the table was first used.
	ErrRegistrySealed = errors.New("registry is sealed")

	// ErrDuplicateType indicates the same type name was registered twice.
	ErrDuplicateType = errors.New("type already registered")
)

type Registry struct {
	logger    *slog.Logger
	mu        sync.Mutex
	sealed    atomic.Bool
	workflows map[models.WorkflowType]protocol.WorkflowDefinition
	nodes     map[models.NodeType]protocol.NodeDefinition
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		workflows: make(map[models.WorkflowType]protocol.WorkflowDefinition),
		nodes:     make(map[models.NodeType]protocol.NodeDefinition),
	}
}

func (r *Registry) RegisterWorkflow(def protocol.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("register workflow %q: %w", def.Type(), ErrRegistrySealed)
	}

	if _, ok := r.workflows[def.Type()]; ok {
		return fmt.Errorf("register workflow %q: %w", def.Type(), ErrDuplicateType)
	}

	r.workflows[def.Type()] = def
	r.logger.Debug("Registered workflow", "workflow_type", def.Type())

	return nil
}

func (r *Registry) RegisterNode(def protocol.NodeDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("register node %q: %w", def.Type(), ErrRegistrySealed)
	}

	if _, ok := r.nodes[def.Type()]; ok {
		return fmt.Errorf("register node %q: %w", def.Type(), ErrDuplicateType)
	}

	r.nodes[def.Type()] = def
	r.logger.Debug("Registered node", "node_type", def.Type())

	return nil
}

// Seal makes the table read-only. It is called implicitly by the first lookup.
func (r *Registry) Seal() {
	if r.sealed.Load() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.CompareAndSwap(false, true) {
		r.logger.Info("Registry sealed", "workflows", len(r.workflows), "nodes", len(r.nodes))
	}
}

// Sealed reports whether the table is read-only.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

func (r *Registry) Workflow(workflowType models.WorkflowType) (protocol.WorkflowDefinition, error) {
	r.Seal()

	def, ok := r.workflows[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflowType, workflowType)
	}

	return def, nil
}

func (r *Registry) Node(nodeType models.NodeType) (protocol.NodeDefinition, error) {
	r.Seal()

	def, ok := r.nodes[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	return def, nil
}

// WorkflowTypes returns the registered workflow types in name order.
func (r *Registry) WorkflowTypes() []models.WorkflowType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.WorkflowType, 0, len(r.workflows))
	for t := range r.workflows {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// NodeTypes returns the registered node types in name order.
func (r *Registry) NodeTypes() []models.NodeType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.NodeType, 0, len(r.nodes))
	for t := range r.nodes {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// HealthCheck reports whether any definition is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.workflows) == 0 {
		return "No workflow types registered", false
	}

	return fmt.Sprintf("%d workflow types, %d node types registered", len(r.workflows), len(r.nodes)), true
}
