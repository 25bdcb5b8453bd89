package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/persistence/file"
	"github.com/workdesk/workdesk/pkg/persistence/memory"
	"github.com/workdesk/workdesk/pkg/persistence/postgresql"
	"github.com/workdesk/workdesk/pkg/persistence/redis"
	"github.com/workdesk/workdesk/pkg/workflow"
)

var supportedPersistenceProviders = []string{"file", "memory", "postgres", "postgresql", "redis", "rediss"}

// lockTTL bounds how long a crashed process can hold a workflow lock.
const lockTTL = 30 * time.Second

// NewPersistence opens the store named by the URL scheme. A URL without a
// scheme is treated as a file store root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger.InfoContext(ctx, "Initializing persistence", "provider", provider)

	switch provider {
	case "memory":
		return memory.NewPersistence(), nil
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger, databaseURL)
	case "file":
		return file.NewPersistence(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q (supported: %s)",
			provider, strings.Join(supportedPersistenceProviders, ", "))
	}
}

// NewLocker returns a Redis lock shared across processes when the store is
// Redis, and nil otherwise so the router keeps its in-process lock.
func NewLocker(store persistence.Persistence, logger *slog.Logger) workflow.Locker {
	if rs, ok := store.(*redis.Persistence); ok {
		return redis.NewLocker(rs.Client(), logger, "", lockTTL)
	}

	return nil
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
