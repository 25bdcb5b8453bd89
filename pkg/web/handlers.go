// Package web provides HTTP handlers and REST API endpoints for workflow and node instances.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/workflow"
)

type APIHandlers struct {
	router    *workflow.Router
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(router *workflow.Router, validator *validator.Validate, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		router:    router,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts every endpoint on r.
func (h *APIHandlers) Register(r fiber.Router) {
	w := r.Group("/workflows")
	w.Post("/:type", h.CreateWorkflow)
	w.Get("/:type/:id", h.GetWorkflow)
	w.Post("/:type/:id/close", h.CloseWorkflow)

	n := r.Group("/nodes")
	n.Get("/:type/:id", h.GetNode)
	n.Post("/:type/:id/start", h.StartNode)
	n.Post("/:type/:id/return", h.ReturnNode)
	n.Post("/:type/:id/submit", h.SubmitNode)

	r.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	check, ok := h.router.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Workdesk API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Workdesk API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"router": check,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.router.CreateWorkflow(c.Context(), models.WorkflowType(c.Params("type")), req.Data, req.Parent.ref())
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	w, err := h.router.GetWorkflow(c.Context(), models.WorkflowType(c.Params("type")), c.Params("id"))
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.JSON(w)
}

func (h *APIHandlers) CloseWorkflow(c fiber.Ctx) error {
	user, err := h.bindUser(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	closed, err := h.router.CloseWorkflow(c.Context(), models.WorkflowType(c.Params("type")), c.Params("id"), user)
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.JSON(closed)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	n, err := h.router.GetNode(c.Context(), models.NodeType(c.Params("type")), c.Params("id"))
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.JSON(n)
}

func (h *APIHandlers) StartNode(c fiber.Ctx) error {
	user, err := h.bindUser(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	n, err := h.router.Start(c.Context(), models.NodeType(c.Params("type")), c.Params("id"), user)
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.JSON(n)
}

func (h *APIHandlers) ReturnNode(c fiber.Ctx) error {
	user, err := h.bindUser(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	n, err := h.router.Return(c.Context(), models.NodeType(c.Params("type")), c.Params("id"), user)
	if err != nil {
		return handleRouterError(c, err)
	}

	return c.JSON(n)
}

func (h *APIHandlers) SubmitNode(c fiber.Ctx) error {
	var req SubmitNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.router.Submit(c.Context(), models.NodeType(c.Params("type")), c.Params("id"), req.User, req.Data)
	if err != nil {
		return handleRouterError(c, err)
	}

	h.logger.DebugContext(c.Context(), "Node submitted over HTTP",
		"node_type", c.Params("type"),
		"node_id", c.Params("id"),
		"user", req.User)

	return c.JSON(newSubmitNodeResponse(res))
}

func (h *APIHandlers) bindUser(c fiber.Ctx) (string, error) {
	var req UserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return "", errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return "", err
	}

	return req.User, nil
}
