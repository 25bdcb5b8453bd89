// Package workflow drives workflow and node instances through their lifecycle.
//
// Every public operation of Router runs as one unit of work: the touched
// workflow instances are locked, records are read and changed in a private
// buffer, and the buffer is committed with a single SaveBatch call. Lifecycle
// events are published only after the commit succeeds.
package workflow

import (
	"context"
	"log/slog"

	"github.com/workdesk/workdesk/pkg/clock"
	"github.com/workdesk/workdesk/pkg/eventbus"
	"github.com/workdesk/workdesk/pkg/ids"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/otelhelper"
	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxAutoChain bounds how many automatic nodes may run back to back in one operation.
const MaxAutoChain = 64

// DefaultAdminRole is the role allowed to close workflows by hand.
const DefaultAdminRole = "admin"

type Router struct {
	registry  *registry.Registry
	store     persistence.Persistence
	auth      Authorizer
	ids       IDGenerator
	clock     Clock
	locker    Locker
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	adminRole string
}

type Option func(*Router)

func WithIDGenerator(g IDGenerator) Option {
	return func(r *Router) { r.ids = g }
}

func WithClock(c Clock) Option {
	return func(r *Router) { r.clock = c }
}

func WithLocker(l Locker) Option {
	return func(r *Router) { r.locker = l }
}

func WithPublisher(p eventbus.EventPublisher) Option {
	return func(r *Router) { r.publisher = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// WithAdminRole sets the role required by CloseWorkflow.
func WithAdminRole(role string) Option {
	return func(r *Router) { r.adminRole = role }
}

func NewRouter(reg *registry.Registry, store persistence.Persistence, auth Authorizer, logger *slog.Logger, opts ...Option) *Router {
	r := &Router{
		registry:  reg,
		store:     store,
		auth:      auth,
		ids:       ids.UUIDv7{},
		clock:     clock.NewSystem(clock.DefaultCalendar()),
		locker:    NewKeyedMutex(),
		publisher: eventbus.Discard{},
		tracer:    otelhelper.NoopTracer(),
		logger:    logger,
		adminRole: DefaultAdminRole,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// GetWorkflow reads a workflow record without locking it.
func (r *Router) GetWorkflow(ctx context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	w, err := r.store.FetchWorkflow(ctx, workflowType, id)
	if err != nil {
		return nil, &OperationError{Op: "get", Type: string(workflowType), ID: id, Err: err}
	}

	return w, nil
}

// GetNode reads a node record without locking it.
func (r *Router) GetNode(ctx context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	n, err := r.store.FetchNode(ctx, nodeType, id)
	if err != nil {
		return nil, &OperationError{Op: "get", Type: string(nodeType), ID: id, Err: err}
	}

	return n, nil
}

// HealthCheck reports the state of the store and the registry.
func (r *Router) HealthCheck(ctx context.Context) (string, bool) {
	if msg, ok := r.registry.HealthCheck(); !ok {
		return msg, false
	}

	if err := r.store.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// run executes fn inside a fresh session and commits it.
func (r *Router) run(ctx context.Context, op, typ, id string, fn func(s *session) error) error {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow."+op,
		attribute.String(otelhelper.OperationKey, op),
		attribute.String(otelhelper.WorkflowTypeKey, typ),
		attribute.String(otelhelper.WorkflowIDKey, id),
	)
	defer span.End()

	s := newSession(ctx, r)
	defer s.release()

	err := fn(s)
	if err == nil {
		err = s.commit()
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.ErrorKindKey, ErrorKind(err)))
		r.logger.DebugContext(ctx, "Operation failed", "op", op, "type", typ, "id", id, "error", err)

		return &OperationError{Op: op, Type: typ, ID: id, Err: err}
	}

	s.publish()

	return nil
}
