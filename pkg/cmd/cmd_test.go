package cmd

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/auth"
	"github.com/workdesk/workdesk/pkg/channels/kafka"
	"github.com/workdesk/workdesk/pkg/flows/docverify"
	"github.com/workdesk/workdesk/pkg/persistence/file"
	"github.com/workdesk/workdesk/pkg/persistence/memory"
	"github.com/workdesk/workdesk/pkg/persistence/redis"
)

func TestParsePersistenceProvider(t *testing.T) {
	tests := map[string]string{
		"file:///var/lib/workdesk":           "file",
		"./data":                             "file",
		"memory://":                          "memory",
		"postgres://user@localhost/db":       "postgres",
		"postgresql://user@localhost/db":     "postgresql",
		"redis://localhost:6379/0":           "redis",
		"mongodb://localhost:27017/workdesk": "mongodb",
	}

	for url, want := range tests {
		assert.Equal(t, want, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence(t *testing.T) {
	ctx := t.Context()

	store, err := NewPersistence(ctx, slog.Default(), "memory://")
	require.NoError(t, err)
	assert.IsType(t, &memory.Persistence{}, store)
	assert.Nil(t, NewLocker(store, slog.Default()))

	store, err = NewPersistence(ctx, slog.Default(), "file://"+filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, store)

	_, err = NewPersistence(ctx, slog.Default(), "mongodb://localhost")
	assert.Error(t, err)
}

func TestNewPersistence_Redis(t *testing.T) {
	ctx := t.Context()
	srv := miniredis.RunT(t)

	store, err := NewPersistence(ctx, slog.Default(), "redis://"+srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	assert.IsType(t, &redis.Persistence{}, store)
	assert.IsType(t, &redis.Locker{}, NewLocker(store, slog.Default()))

	authz, err := NewAuthorizer(ctx, store, map[string][]string{"reviewer": {"alice"}}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &auth.Redis{}, authz)

	ok, err := authz.UserHasRole(ctx, "alice", "reviewer")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewAuthorizer_Static(t *testing.T) {
	authz, err := NewAuthorizer(t.Context(), memory.NewPersistence(), map[string][]string{"reviewer": {"alice"}}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &auth.Static{}, authz)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(slog.Default())
	require.NoError(t, err)

	_, err = reg.Workflow(docverify.WorkflowDocVerify)
	assert.NoError(t, err)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", kafka.Config{}, slog.Default())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", kafka.Config{}, slog.Default())
	require.ErrorIs(t, err, kafka.ErrNoBrokers)

	_, err = NewEventBus("nats", kafka.Config{}, slog.Default())
	assert.Error(t, err)
}
