package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/workflow"
)

var errInvalidJSON = errors.New("invalid JSON format")

// validationProblem is a problem document that also lists the rejecting messages.
type validationProblem struct {
	*problems.Problem

	Messages models.Messages `json:"messages"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("bad_request").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func statusProblem(c fiber.Ctx, status int, typ, detail string) error {
	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(typ).
		WithDetail(detail)

	return c.Status(status).JSON(problem)
}

// handleRouterError maps router errors to problem documents.
func handleRouterError(c fiber.Ctx, err error) error {
	switch {
	case workflow.IsValidation(err):
		problem := validationProblem{
			Problem: problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
				WithInstance(c.Path()).
				WithType("validation_error").
				WithDetail(err.Error()),
			Messages: workflow.ValidationMessages(err),
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case errors.Is(err, workflow.ErrInvalidParent):
		return statusProblem(c, fiber.StatusUnprocessableEntity, "invalid_parent", err.Error())

	case errors.Is(err, workflow.ErrUnknownWorkflowType):
		return statusProblem(c, fiber.StatusNotFound, "unknown_workflow_type", err.Error())

	case errors.Is(err, workflow.ErrUnknownNodeType):
		return statusProblem(c, fiber.StatusNotFound, "unknown_node_type", err.Error())

	case errors.Is(err, workflow.ErrWorkflowNotFound):
		return statusProblem(c, fiber.StatusNotFound, "workflow_not_found", "workflow not found")

	case errors.Is(err, workflow.ErrNodeNotFound):
		return statusProblem(c, fiber.StatusNotFound, "node_not_found", "node not found")

	case errors.Is(err, workflow.ErrNotAuthorized):
		return statusProblem(c, fiber.StatusForbidden, "not_authorized", err.Error())

	case errors.Is(err, workflow.ErrNotSameUser):
		return statusProblem(c, fiber.StatusForbidden, "not_same_user", err.Error())

	case errors.Is(err, workflow.ErrWrongState):
		return statusProblem(c, fiber.StatusConflict, "wrong_state", err.Error())

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
