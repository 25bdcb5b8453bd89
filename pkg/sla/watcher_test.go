package sla

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/events"
	"github.com/workdesk/workdesk/pkg/mocks"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence/memory"
	"github.com/workdesk/workdesk/pkg/testutil"
)

func TestNewWatcher_InvalidSchedule(t *testing.T) {
	_, err := NewWatcher(memory.NewPersistence(), &testutil.Recorder{}, testutil.ManualClock(), slog.Default(), "every now and then")
	assert.Error(t, err)
}

func TestWatcher_Scan(t *testing.T) {
	ctx := t.Context()
	store := memory.NewPersistence()
	clk := testutil.ManualClock()
	rec := &testutil.Recorder{}

	late := testutil.CreateTestInputNode(testutil.WithDeadline(testutil.Monday.Add(time.Hour)), testutil.WithAssignee("alice"))
	onTime := testutil.CreateTestInputNode(testutil.WithDeadline(testutil.Monday.Add(48 * time.Hour)))
	require.NoError(t, store.SaveBatch(ctx, nil, []*models.NodeInstance{late, onTime}))

	w, err := NewWatcher(store, rec, clk, slog.Default(), "@every 1m")
	require.NoError(t, err)

	n, err := w.Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(3 * time.Hour)

	n, err = w.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, rec.Events(), 1)
	breach, ok := rec.Events()[0].(events.NodeSLABreached)
	require.True(t, ok)
	assert.Equal(t, late.NodeInstanceID, breach.NodeInstanceID)
	assert.Equal(t, "alice", breach.User)
	assert.Equal(t, "reviewer", breach.StaffRole)
	assert.Equal(t, 2*time.Hour, breach.Overdue)

	n, err = w.Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a breach is reported once per deadline")

	// A submitted node drops out of the index and out of the report cache.
	closedAt := clk.Now()
	late.ClosedAt = &closedAt
	late.Input.Status = models.InputStatusEnded
	late.Input.AssignedUser = nil
	require.NoError(t, store.SaveNode(ctx, late))

	_, err = w.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, w.reported)
}

func TestWatcher_ScanStoreFailure(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("OverdueInputNodes", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	w, err := NewWatcher(store, &testutil.Recorder{}, testutil.ManualClock(), slog.Default(), "@every 1m")
	require.NoError(t, err)

	_, err = w.Scan(t.Context())
	assert.Error(t, err)
}

func TestWatcher_StartStop(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("OverdueInputNodes", mock.Anything, mock.Anything).Return([]*models.NodeInstance{}, nil).Maybe()

	w, err := NewWatcher(store, &testutil.Recorder{}, testutil.ManualClock(), slog.Default(), "@every 1h")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, w.Start(ctx))
	assert.Len(t, w.cron.Entries(), 1)

	cancel()
	w.Stop()
}
