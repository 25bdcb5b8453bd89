package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
)

var _ persistence.Persistence = (*MockPersistence)(nil)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) FetchWorkflow(ctx context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, workflowType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockPersistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockPersistence) FetchNode(ctx context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	args := m.Called(ctx, nodeType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.NodeInstance), args.Error(1)
}

func (m *MockPersistence) SaveNode(ctx context.Context, node *models.NodeInstance) error {
	args := m.Called(ctx, node)

	return args.Error(0)
}

func (m *MockPersistence) SaveBatch(ctx context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error {
	args := m.Called(ctx, workflows, nodes)

	return args.Error(0)
}

func (m *MockPersistence) OverdueInputNodes(ctx context.Context, asOf time.Time) ([]*models.NodeInstance, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.NodeInstance), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockAuthorizer is a mock implementation of workflow.Authorizer interface.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) UserHasRole(ctx context.Context, user, role string) (bool, error) {
	args := m.Called(ctx, user, role)

	return args.Bool(0), args.Error(1)
}
