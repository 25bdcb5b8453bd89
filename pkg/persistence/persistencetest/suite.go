// Package persistencetest holds the behaviour every store must share.
package persistencetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// Workflow returns a populated workflow record.
func Workflow(id string) *models.WorkflowInstance {
	return &models.WorkflowInstance{
		WorkflowType:       "DocVerify",
		WorkflowInstanceID: id,
		CreatedAt:          base,
		BusinessData: models.Data{
			"document": "passport",
			"pages":    float64(3),
			"flags":    []any{"scanned", true},
			"owner":    map[string]any{"name": "Ada", "age": float64(36)},
		},
		NodeHistory: []string{id + "-n1"},
		ActiveNodes: []string{id + "-n1"},
		NodeTypes:   models.NodeIndex{id + "-n1": "Review"},
		Audit: []models.AuditEntry{
			{Timestamp: base, User: models.SystemUser, Action: models.AuditCreated, Text: "DocVerify created"},
		},
	}
}

// InputNode returns a ready input node with the given deadline.
func InputNode(id string, deadline time.Time) *models.NodeInstance {
	return &models.NodeInstance{
		NodeType:           "Review",
		NodeInstanceID:     id,
		WorkflowType:       "DocVerify",
		WorkflowInstanceID: "wf-1",
		CreatedAt:          base,
		ChildWorkflowTypes: []models.WorkflowType{"Notify"},
		Input: &models.InputState{
			StaffRole: "reviewer",
			Status:    models.InputStatusReady,
			SLAHours:  8,
			Deadline:  deadline,
		},
	}
}

// Run exercises a store created by factory. Each subtest gets a fresh store.
func Run(t *testing.T, factory func(t *testing.T) persistence.Persistence) {
	t.Helper()

	ctx := context.Background()

	t.Run("workflow round trip", func(t *testing.T) {
		store := factory(t)

		closed := base.Add(time.Hour)
		original := Workflow("wf-1")
		original.ClosedAt = &closed
		original.ActiveNodes = []string{}
		original.Parent = &models.ParentRef{
			WorkflowType:       "Batch",
			WorkflowInstanceID: "wf-0",
			FromNodeType:       "Split",
			FromNodeInstanceID: "n-0",
		}

		require.NoError(t, store.SaveWorkflow(ctx, original))

		loaded, err := store.FetchWorkflow(ctx, "DocVerify", "wf-1")
		require.NoError(t, err)
		assertWorkflowEqual(t, original, loaded)
	})

	t.Run("node round trip", func(t *testing.T) {
		store := factory(t)

		user := "alice"
		started := InputNode("n-1", base.Add(8*time.Hour))
		started.Input.Status = models.InputStatusStarted
		started.Input.AssignedUser = &user

		closedAt := base.Add(2 * time.Hour)
		ended := InputNode("n-2", base.Add(4*time.Hour))
		ended.NodeType = "Approve"
		ended.ChildWorkflowTypes = nil
		ended.ClosedAt = &closedAt
		ended.Input.StaffRole = "approver"
		ended.Input.Status = models.InputStatusEnded
		ended.Input.SLAHours = 4.5

		auto := &models.NodeInstance{
			NodeType:           "Intake",
			NodeInstanceID:     "n-3",
			WorkflowType:       "DocVerify",
			WorkflowInstanceID: "wf-1",
			CreatedAt:          base,
			ClosedAt:           &closedAt,
		}

		for _, original := range []*models.NodeInstance{started, ended, auto} {
			require.NoError(t, store.SaveNode(ctx, original))

			loaded, err := store.FetchNode(ctx, original.NodeType, original.NodeInstanceID)
			require.NoError(t, err)
			assertNodeEqual(t, original, loaded)
		}
	})

	t.Run("missing records", func(t *testing.T) {
		store := factory(t)

		_, err := store.FetchWorkflow(ctx, "DocVerify", "nope")
		require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

		_, err = store.FetchNode(ctx, "Review", "nope")
		require.ErrorIs(t, err, persistence.ErrNodeNotFound)
	})

	t.Run("type is part of the key", func(t *testing.T) {
		store := factory(t)

		require.NoError(t, store.SaveWorkflow(ctx, Workflow("wf-1")))

		_, err := store.FetchWorkflow(ctx, "Notify", "wf-1")
		require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	})

	t.Run("fetched records are copies", func(t *testing.T) {
		store := factory(t)

		require.NoError(t, store.SaveWorkflow(ctx, Workflow("wf-1")))

		first, err := store.FetchWorkflow(ctx, "DocVerify", "wf-1")
		require.NoError(t, err)

		first.BusinessData["document"] = "changed"

		second, err := store.FetchWorkflow(ctx, "DocVerify", "wf-1")
		require.NoError(t, err)
		assert.Equal(t, "passport", second.BusinessData["document"])
	})

	t.Run("batch save overwrites", func(t *testing.T) {
		store := factory(t)

		w := Workflow("wf-1")
		n := InputNode("n-1", base.Add(time.Hour))
		require.NoError(t, store.SaveBatch(ctx, []*models.WorkflowInstance{w}, []*models.NodeInstance{n}))

		w.BusinessData["document"] = "visa"
		n.Close(base.Add(2 * time.Hour))
		require.NoError(t, store.SaveBatch(ctx, []*models.WorkflowInstance{w}, []*models.NodeInstance{n}))

		loadedW, err := store.FetchWorkflow(ctx, "DocVerify", "wf-1")
		require.NoError(t, err)
		assert.Equal(t, "visa", loadedW.BusinessData["document"])

		loadedN, err := store.FetchNode(ctx, "Review", "n-1")
		require.NoError(t, err)
		assert.True(t, loadedN.IsClosed())
	})

	t.Run("invalid batch writes nothing", func(t *testing.T) {
		store := factory(t)

		bad := InputNode("", base)
		err := store.SaveBatch(ctx, []*models.WorkflowInstance{Workflow("wf-1")}, []*models.NodeInstance{bad})
		require.ErrorIs(t, err, persistence.ErrInvalidRecord)

		_, err = store.FetchWorkflow(ctx, "DocVerify", "wf-1")
		require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	})

	t.Run("overdue input nodes", func(t *testing.T) {
		store := factory(t)

		asOf := base.Add(10 * time.Hour)

		late := InputNode("late", base.Add(2*time.Hour))
		later := InputNode("later", base.Add(1*time.Hour))
		onTime := InputNode("on-time", base.Add(20*time.Hour))
		done := InputNode("done", base.Add(time.Hour))
		done.Close(base.Add(time.Hour))
		done.Input.Status = models.InputStatusEnded

		auto := &models.NodeInstance{
			NodeType:           "Intake",
			NodeInstanceID:     "auto",
			WorkflowType:       "DocVerify",
			WorkflowInstanceID: "wf-1",
			CreatedAt:          base,
		}

		require.NoError(t, store.SaveBatch(ctx, nil, []*models.NodeInstance{late, later, onTime, done, auto}))

		overdue, err := store.OverdueInputNodes(ctx, asOf)
		require.NoError(t, err)
		require.Len(t, overdue, 2)
		assert.Equal(t, "later", overdue[0].NodeInstanceID)
		assert.Equal(t, "late", overdue[1].NodeInstanceID)

		// A node that closes drops out of the scan.
		late.Close(asOf)
		late.Input.Status = models.InputStatusEnded
		require.NoError(t, store.SaveNode(ctx, late))

		overdue, err = store.OverdueInputNodes(ctx, asOf)
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, "later", overdue[0].NodeInstanceID)
	})

	t.Run("health check", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.HealthCheck(ctx))
	})
}

func assertWorkflowEqual(t *testing.T, expected, actual *models.WorkflowInstance) {
	t.Helper()

	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt), "created_at %s != %s", expected.CreatedAt, actual.CreatedAt)
	assertTimeEqual(t, expected.ClosedAt, actual.ClosedAt)
	require.Len(t, actual.Audit, len(expected.Audit))

	want, got := expected.Snapshot(), actual.Snapshot()
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	want.ClosedAt, got.ClosedAt = nil, nil

	for i := range want.Audit {
		assert.True(t, want.Audit[i].Timestamp.Equal(got.Audit[i].Timestamp), "audit %d timestamp", i)
		want.Audit[i].Timestamp, got.Audit[i].Timestamp = time.Time{}, time.Time{}
	}

	assert.Equal(t, want, got)
}

// assertNodeEqual compares whole nodes, times by instant rather than by
// location or monotonic reading.
func assertNodeEqual(t *testing.T, expected, actual *models.NodeInstance) {
	t.Helper()

	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt), "created_at %s != %s", expected.CreatedAt, actual.CreatedAt)
	assertTimeEqual(t, expected.ClosedAt, actual.ClosedAt)

	want, got := expected.Snapshot(), actual.Snapshot()
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	want.ClosedAt, got.ClosedAt = nil, nil

	if want.Input != nil && got.Input != nil {
		assert.True(t, want.Input.Deadline.Equal(got.Input.Deadline), "deadline %s != %s", want.Input.Deadline, got.Input.Deadline)
		want.Input.Deadline, got.Input.Deadline = time.Time{}, time.Time{}
	}

	assert.Equal(t, want, got)
}

func assertTimeEqual(t *testing.T, expected, actual *time.Time) {
	t.Helper()

	if expected == nil {
		assert.Nil(t, actual)

		return
	}

	if assert.NotNil(t, actual) {
		assert.True(t, expected.Equal(*actual), "%s != %s", *expected, *actual)
	}
}
