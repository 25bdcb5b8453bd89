package workflow

import (
	"context"
	"time"
)

// Authorizer answers role membership questions for input nodes.
type Authorizer interface {
	UserHasRole(ctx context.Context, user, role string) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, user, role string) (bool, error)

func (f AuthorizerFunc) UserHasRole(ctx context.Context, user, role string) (bool, error) {
	return f(ctx, user, role)
}

// IDGenerator issues workflow and node instance ids.
type IDGenerator interface {
	NewInstanceID() string
}

// Clock supplies timestamps and SLA deadlines.
type Clock interface {
	Now() time.Time
	AddWorkingHours(hours float64) time.Time
}

// Locker serializes mutations of one workflow instance. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
