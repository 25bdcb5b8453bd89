package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/workdesk/workdesk/pkg/models"
)

// EncodeWorkflow renders the persisted JSON document of a workflow.
func EncodeWorkflow(w *models.WorkflowInstance) ([]byte, error) {
	body, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow %s: %w", w.WorkflowInstanceID, err)
	}

	return body, nil
}

// DecodeWorkflow parses a persisted workflow document.
func DecodeWorkflow(body []byte) (*models.WorkflowInstance, error) {
	var w models.WorkflowInstance
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	if w.BusinessData == nil {
		w.BusinessData = models.Data{}
	}

	return &w, nil
}

// EncodeNode renders the persisted JSON document of a node.
func EncodeNode(n *models.NodeInstance) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node %s: %w", n.NodeInstanceID, err)
	}

	return body, nil
}

// DecodeNode parses a persisted node document.
func DecodeNode(body []byte) (*models.NodeInstance, error) {
	var n models.NodeInstance
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}

	return &n, nil
}

// IsOverdue reports whether a node should appear in an SLA scan at asOf.
func IsOverdue(n *models.NodeInstance, asOf time.Time) bool {
	return n.Input != nil && !n.IsClosed() && n.Input.IsOverdue(asOf)
}
