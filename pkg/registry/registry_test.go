package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/predicate"
	"github.com/workdesk/workdesk/pkg/protocol"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(slog.Default())

	require.NoError(t, r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "Case", Start: "Triage"}))
	require.NoError(t, r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "Sub", Start: "Work"}))
	require.NoError(t, r.RegisterNode(&protocol.NodeSpec{
		Name:      "Triage",
		Automatic: true,
		Routing:   predicate.Branch(predicate.Otherwise("Work")),
	}))
	require.NoError(t, r.RegisterNode(&protocol.NodeSpec{
		Name:     "Work",
		Human:    &protocol.InputSpec{StaffRole: "clerk", SLAHours: 4},
		Children: []models.WorkflowType{"Sub"},
	}))

	return r
}

func TestRegistry_Lookup(t *testing.T) {
	r := newTestRegistry(t)

	wf, err := r.Workflow("Case")
	require.NoError(t, err)
	assert.Equal(t, models.NodeType("Triage"), wf.StartNode(models.Data{}))

	node, err := r.Node("Work")
	require.NoError(t, err)
	assert.Equal(t, "clerk", node.Input().StaffRole)

	_, err = r.Workflow("Nope")
	require.ErrorIs(t, err, ErrUnknownWorkflowType)

	_, err = r.Node("Nope")
	require.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestRegistry_SealedOnFirstLookup(t *testing.T) {
	r := newTestRegistry(t)
	assert.False(t, r.Sealed())

	_, _ = r.Node("Work")
	assert.True(t, r.Sealed())

	err := r.RegisterNode(&protocol.NodeSpec{Name: "Late"})
	require.ErrorIs(t, err, ErrRegistrySealed)

	err = r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "Late", Start: "Work"})
	require.ErrorIs(t, err, ErrRegistrySealed)

	r.Seal()
	assert.True(t, r.Sealed())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := newTestRegistry(t)

	require.ErrorIs(t, r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "Case", Start: "Triage"}), ErrDuplicateType)
	require.ErrorIs(t, r.RegisterNode(&protocol.NodeSpec{Name: "Work"}), ErrDuplicateType)
}

func TestRegistry_Types(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, []models.WorkflowType{"Case", "Sub"}, r.WorkflowTypes())
	assert.Equal(t, []models.NodeType{"Triage", "Work"}, r.NodeTypes())

	status, ok := r.HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "2 workflow types, 2 node types registered", status)
}

func TestRegistry_HealthCheckEmpty(t *testing.T) {
	status, ok := NewRegistry(slog.Default()).HealthCheck()

	assert.False(t, ok)
	assert.Equal(t, "No workflow types registered", status)
}

func TestRegistry_Validate(t *testing.T) {
	require.NoError(t, newTestRegistry(t).Validate())
}

func TestRegistry_ValidateReportsEveryProblem(t *testing.T) {
	r := NewRegistry(slog.Default())

	require.NoError(t, r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "NoStart"}))
	require.NoError(t, r.RegisterWorkflow(&protocol.WorkflowSpec{Name: "BadStart", Start: "Ghost"}))
	require.NoError(t, r.RegisterNode(&protocol.NodeSpec{
		Name:     "Dangling",
		Routing:  predicate.Branch(predicate.To("Missing", predicate.Always())),
		Children: []models.WorkflowType{"Unknown"},
	}))
	require.NoError(t, r.RegisterNode(&protocol.NodeSpec{
		Name:  "NoRole",
		Human: &protocol.InputSpec{},
	}))
	require.NoError(t, r.RegisterNode(&protocol.NodeSpec{
		Name:      "Both",
		Automatic: true,
		Human:     &protocol.InputSpec{StaffRole: "clerk"},
	}))

	err := r.Validate()
	require.ErrorIs(t, err, ErrIncompleteRegistry)

	for _, want := range []string{
		`workflow "NoStart" has no start node`,
		`workflow "BadStart" start node "Ghost" not registered`,
		`node "Dangling" routes to unregistered node "Missing"`,
		`node "Dangling" spawns unregistered workflow "Unknown"`,
		`input node "NoRole" has no staff role`,
		`node "Both" cannot be both automatic and an input node`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}
