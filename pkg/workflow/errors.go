package workflow

import (
	"errors"
	"fmt"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/registry"
)

var (
	ErrUnknownWorkflowType = registry.ErrUnknownWorkflowType
	ErrUnknownNodeType     = registry.ErrUnknownNodeType
	ErrWorkflowNotFound    = persistence.ErrWorkflowNotFound
	ErrNodeNotFound        = persistence.ErrNodeNotFound
	ErrWrongState          = models.ErrWrongState
	ErrNotSameUser         = models.ErrNotSameUser

	// ErrNotAuthorized indicates the user lacks the staff role of an input node.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidParent indicates a parent reference naming a node that did not spawn the workflow.
	ErrInvalidParent = errors.New("invalid parent reference")

	// ErrRoutingLoop indicates a chain of automatic nodes that never waits for input.
	ErrRoutingLoop = errors.New("automatic node chain exceeds limit")
)

// ValidationError carries the messages that rejected a creation or submission.
type ValidationError struct {
	Messages models.Messages
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Messages.Errors().String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(msgs models.Messages) error {
	return &ValidationError{Messages: msgs}
}

// OperationError wraps the failure of a public router operation.
type OperationError struct {
	Op   string // create, start, return, submit, close
	Type string // workflow or node type addressed by the caller
	ID   string // instance id, empty for create
	Err  error
}

func (e *OperationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
	}

	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Type, e.ID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was caused by rejected data.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ValidationMessages extracts the messages of a validation failure, if any.
func ValidationMessages(err error) models.Messages {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Messages
	}

	return nil
}

// IsNotFound reports whether err names a missing type or instance.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownWorkflowType) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrNodeNotFound)
}

// ErrorKind classifies err for logs, spans and HTTP problem types.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case errors.Is(err, ErrInvalidParent):
		return "invalid_parent"
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrNotSameUser):
		return "not_same_user"
	case errors.Is(err, ErrWrongState):
		return "wrong_state"
	case errors.Is(err, ErrRoutingLoop):
		return "routing_loop"
	default:
		return "internal"
	}
}
