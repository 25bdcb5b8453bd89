package persistence

import (
	"fmt"

	"github.com/workdesk/workdesk/pkg/models"
)

// CheckWorkflow rejects records that cannot be keyed.
func CheckWorkflow(w *models.WorkflowInstance) error {
	if w == nil || w.WorkflowType == "" || w.WorkflowInstanceID == "" {
		return fmt.Errorf("%w: workflow type and id are required", ErrInvalidRecord)
	}

	return nil
}

// CheckNode rejects records that cannot be keyed.
func CheckNode(n *models.NodeInstance) error {
	if n == nil || n.NodeType == "" || n.NodeInstanceID == "" {
		return fmt.Errorf("%w: node type and id are required", ErrInvalidRecord)
	}

	return nil
}
