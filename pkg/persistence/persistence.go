// Package persistence provides the storage abstraction for workflow and node records.
package persistence

import (
	"context"
	"time"

	"github.com/workdesk/workdesk/pkg/models"
)

// Persistence stores workflow and node records. Implementations must give
// read-your-writes consistency for a single instance id.
type Persistence interface {
	FetchWorkflow(ctx context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error
	FetchNode(ctx context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error)
	SaveNode(ctx context.Context, node *models.NodeInstance) error

	// SaveBatch stores every record or none of them.
	SaveBatch(ctx context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error

	// OverdueInputNodes returns open input nodes whose deadline is before asOf.
	OverdueInputNodes(ctx context.Context, asOf time.Time) ([]*models.NodeInstance, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
