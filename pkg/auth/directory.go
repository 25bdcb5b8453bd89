// Package auth provides role directories that answer whether a user holds a
// staff role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyIdentity indicates a lookup with no user or no role.
var ErrEmptyIdentity = errors.New("user and role are required")

// Static is an in-memory role directory, usually loaded from the YAML config.
type Static struct {
	mu    sync.RWMutex
	roles map[string][]string
}

// NewStatic builds a directory from role -> members.
func NewStatic(roles map[string][]string) *Static {
	s := &Static{roles: make(map[string][]string, len(roles))}
	for role, members := range roles {
		s.roles[role] = slices.Clone(members)
	}

	return s
}

// UserHasRole reports whether user is listed under role.
func (s *Static) UserHasRole(_ context.Context, user, role string) (bool, error) {
	if user == "" || role == "" {
		return false, ErrEmptyIdentity
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.roles[role], user), nil
}

// Grant adds user to role.
func (s *Static) Grant(user, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.roles[role], user) {
		s.roles[role] = append(s.roles[role], user)
	}
}

// Revoke removes user from role.
func (s *Static) Revoke(user, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles[role] = slices.DeleteFunc(s.roles[role], func(u string) bool { return u == user })
}

const defaultRolePrefix = "workdesk:roles:"

// Redis keeps role membership in one Redis set per role, so several API
// processes share the same directory.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

// NewRedis wraps client. An empty prefix selects "workdesk:roles:".
func NewRedis(client *redis.Client, logger *slog.Logger, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRolePrefix
	}

	return &Redis{client: client, logger: logger, prefix: prefix}
}

func (r *Redis) key(role string) string {
	return r.prefix + role
}

// UserHasRole checks set membership.
func (r *Redis) UserHasRole(ctx context.Context, user, role string) (bool, error) {
	if user == "" || role == "" {
		return false, ErrEmptyIdentity
	}

	ok, err := r.client.SIsMember(ctx, r.key(role), user).Result()
	if err != nil {
		r.logger.ErrorContext(ctx, "Role lookup failed", "role", role, "user", user, "error", err)

		return false, fmt.Errorf("role lookup %s: %w", role, err)
	}

	return ok, nil
}

// Grant adds user to role.
func (r *Redis) Grant(ctx context.Context, user, role string) error {
	if user == "" || role == "" {
		return ErrEmptyIdentity
	}

	if err := r.client.SAdd(ctx, r.key(role), user).Err(); err != nil {
		return fmt.Errorf("grant %s: %w", role, err)
	}

	return nil
}

// Revoke removes user from role.
func (r *Redis) Revoke(ctx context.Context, user, role string) error {
	if err := r.client.SRem(ctx, r.key(role), user).Err(); err != nil {
		return fmt.Errorf("revoke %s: %w", role, err)
	}

	return nil
}

// Seed loads role -> members in one pipeline, typically from the YAML config.
func (r *Redis) Seed(ctx context.Context, roles map[string][]string) error {
	pipe := r.client.TxPipeline()

	for role, members := range roles {
		if len(members) == 0 {
			continue
		}

		args := make([]any, len(members))
		for i, m := range members {
			args[i] = m
		}

		pipe.SAdd(ctx, r.key(role), args...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	return nil
}
