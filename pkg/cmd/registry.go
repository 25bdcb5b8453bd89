// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workdesk/workdesk/pkg/auth"
	"github.com/workdesk/workdesk/pkg/flows/docverify"
	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/persistence/redis"
	"github.com/workdesk/workdesk/pkg/registry"
	"github.com/workdesk/workdesk/pkg/workflow"
)

// NewRegistry registers the built-in flows and checks that every reference resolves.
func NewRegistry(log *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := docverify.Register(reg); err != nil {
		return nil, fmt.Errorf("register docverify: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	return reg, nil
}

// NewAuthorizer keeps role membership in Redis when the store is Redis,
// seeded from roles, and in memory otherwise.
func NewAuthorizer(ctx context.Context, store persistence.Persistence, roles map[string][]string, logger *slog.Logger) (workflow.Authorizer, error) {
	if rs, ok := store.(*redis.Persistence); ok {
		dir := auth.NewRedis(rs.Client(), logger, "")
		if err := dir.Seed(ctx, roles); err != nil {
			return nil, err
		}

		return dir, nil
	}

	return auth.NewStatic(roles), nil
}
