package registry

import (
	"errors"
	"fmt"

	"github.com/workdesk/workdesk/pkg/models"
)

// ErrIncompleteRegistry indicates a definition refers to an unregistered type.
var ErrIncompleteRegistry = errors.New("incomplete registry")

// Validate checks that every start node, route target and child workflow
// referenced by a definition is registered. Branch tables without a fallback
// are logged, since they close the workflow when nothing matches.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for wfType, def := range r.workflows {
		start := def.StartNode(models.Data{})
		if start == "" {
			errs = append(errs, fmt.Errorf("workflow %q has no start node", wfType))
		} else if _, ok := r.nodes[start]; !ok {
			errs = append(errs, fmt.Errorf("workflow %q start node %q not registered", wfType, start))
		}
	}

	for nodeType, def := range r.nodes {
		table := def.Routes()
		for _, target := range table.Targets() {
			if _, ok := r.nodes[target]; !ok {
				errs = append(errs, fmt.Errorf("node %q routes to unregistered node %q", nodeType, target))
			}
		}

		for _, child := range def.ChildWorkflowTypes() {
			if _, ok := r.workflows[child]; !ok {
				errs = append(errs, fmt.Errorf("node %q spawns unregistered workflow %q", nodeType, child))
			}
		}

		if input := def.Input(); input != nil && input.StaffRole == "" {
			errs = append(errs, fmt.Errorf("input node %q has no staff role", nodeType))
		}

		if def.Input() != nil && def.Auto() {
			errs = append(errs, fmt.Errorf("node %q cannot be both automatic and an input node", nodeType))
		}

		if len(table.Routes) > 0 && !table.Complete() {
			r.logger.Debug("Branch table has no fallback; no match closes the workflow",
				"node_type", nodeType)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrIncompleteRegistry, errors.Join(errs...))
	}

	return nil
}
