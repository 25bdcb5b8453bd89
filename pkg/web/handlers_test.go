package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/auth"
	"github.com/workdesk/workdesk/pkg/flows/docverify"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence/memory"
	"github.com/workdesk/workdesk/pkg/registry"
	"github.com/workdesk/workdesk/pkg/testutil"
	"github.com/workdesk/workdesk/pkg/web"
	"github.com/workdesk/workdesk/pkg/workflow"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	require.NoError(t, docverify.Register(reg))

	roles := auth.NewStatic(map[string][]string{
		docverify.RoleReviewer:    {"reviewer1"},
		docverify.RoleApprover:    {"approver1"},
		workflow.DefaultAdminRole: {"admin"},
	})

	router := workflow.NewRouter(reg, memory.NewPersistence(), roles, slog.Default(),
		workflow.WithClock(testutil.ManualClock()))

	handlers := web.NewAPIHandlers(router, validator.New(validator.WithRequiredStructEnabled()), slog.Default())

	app := fiber.New()
	handlers.Register(app)

	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)

			raw = string(encoded)
		}

		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(body, &v))

	return v
}

func createDocVerify(t *testing.T, app *fiber.App) (*models.WorkflowInstance, string) {
	t.Helper()

	status, body := do(t, app, http.MethodPost, "/workflows/DocVerify", web.CreateWorkflowRequest{
		Data: map[string]any{"applicant": "A"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	w := decode[*models.WorkflowInstance](t, body)
	require.Len(t, w.ActiveNodes, 1)

	return w, w.ActiveNodes[0]
}

func TestAPIHandlers_LinearFlow(t *testing.T) {
	app := setupTestApp(t)
	w, reviewID := createDocVerify(t, app)

	status, body := do(t, app, http.MethodGet, "/workflows/DocVerify/"+w.WorkflowInstanceID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A", decode[*models.WorkflowInstance](t, body).BusinessData["applicant"])

	status, body = do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/start", web.UserRequest{User: "reviewer1"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.InputStatusStarted, decode[*models.NodeInstance](t, body).Input.Status)

	status, body = do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/submit", web.SubmitNodeRequest{
		User: "reviewer1",
		Data: map[string]any{"approved": true},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	res := decode[web.SubmitNodeResponse](t, body)
	assert.Empty(t, res.Next)
	assert.True(t, res.Workflow.IsClosed())
	assert.Equal(t, models.InputStatusEnded, res.Node.Input.Status)

	status, body = do(t, app, http.MethodGet, "/nodes/Review/"+reviewID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[*models.NodeInstance](t, body).IsClosed())
}

func TestAPIHandlers_Errors(t *testing.T) {
	app := setupTestApp(t)
	w, reviewID := createDocVerify(t, app)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedType   string
	}{
		{"unknown workflow type", http.MethodPost, "/workflows/Nope", web.CreateWorkflowRequest{}, http.StatusNotFound, "unknown_workflow_type"},
		{"creation guard", http.MethodPost, "/workflows/DocVerify", web.CreateWorkflowRequest{Data: map[string]any{}}, http.StatusUnprocessableEntity, "validation_error"},
		{"invalid JSON", http.MethodPost, "/workflows/DocVerify", "invalid-json", http.StatusBadRequest, "bad_request"},
		{"missing user", http.MethodPost, "/nodes/Review/" + reviewID + "/start", web.UserRequest{}, http.StatusBadRequest, "bad_request"},
		{"unknown workflow", http.MethodGet, "/workflows/DocVerify/missing", nil, http.StatusNotFound, "workflow_not_found"},
		{"unknown node", http.MethodGet, "/nodes/Review/missing", nil, http.StatusNotFound, "node_not_found"},
		{"not authorized", http.MethodPost, "/nodes/Review/" + reviewID + "/start", web.UserRequest{User: "reviewer2"}, http.StatusForbidden, "not_authorized"},
		{"submit before start", http.MethodPost, "/nodes/Review/" + reviewID + "/submit", web.SubmitNodeRequest{User: "reviewer1"}, http.StatusConflict, "wrong_state"},
		{"close missing workflow", http.MethodPost, "/workflows/DocVerify/missing/close", web.UserRequest{User: "admin"}, http.StatusNotFound, "workflow_not_found"},
		{"forged parent", http.MethodPost, "/workflows/DocVerify", web.CreateWorkflowRequest{
			Data: map[string]any{"applicant": "B"},
			Parent: &web.ParentRequest{
				WorkflowType:       "DocVerify",
				WorkflowInstanceID: w.WorkflowInstanceID,
				FromNodeType:       "Review",
				FromNodeInstanceID: "missing",
			},
		}, http.StatusUnprocessableEntity, "invalid_parent"},
		{"close without admin role", http.MethodPost, "/workflows/DocVerify/" + w.WorkflowInstanceID + "/close", web.UserRequest{User: "reviewer1"}, http.StatusForbidden, "not_authorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, status, string(body))
			assert.Equal(t, tt.expectedType, decode[map[string]any](t, body)["type"])
		})
	}
}

func TestAPIHandlers_ValidationMessages(t *testing.T) {
	app := setupTestApp(t)
	_, reviewID := createDocVerify(t, app)

	status, _ := do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/start", web.UserRequest{User: "reviewer1"})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/submit", web.SubmitNodeRequest{
		User: "reviewer1",
		Data: map[string]any{"approved": "yes"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	problem := decode[struct {
		Type     string          `json:"type"`
		Status   int             `json:"status"`
		Instance string          `json:"instance"`
		Messages models.Messages `json:"messages"`
	}](t, body)
	assert.Equal(t, "validation_error", problem.Type)
	assert.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	assert.Equal(t, "/nodes/Review/"+reviewID+"/submit", problem.Instance)
	require.NotEmpty(t, problem.Messages)
	assert.Equal(t, models.SeverityError, problem.Messages[0].Severity)
	assert.Contains(t, problem.Messages[0].Key, "approved")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.IsType(t, []any{}, raw["messages"], "messages is a top-level array")
}

func TestAPIHandlers_ReturnAndClose(t *testing.T) {
	app := setupTestApp(t)
	w, reviewID := createDocVerify(t, app)

	status, _ := do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/start", web.UserRequest{User: "reviewer1"})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/nodes/Review/"+reviewID+"/return", web.UserRequest{User: "reviewer1"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.InputStatusReady, decode[*models.NodeInstance](t, body).Input.Status)

	path := "/workflows/DocVerify/" + w.WorkflowInstanceID + "/close"
	for range 2 {
		status, body = do(t, app, http.MethodPost, path, web.UserRequest{User: "admin"})
		require.Equal(t, http.StatusOK, status, string(body))

		closed := decode[*models.WorkflowInstance](t, body)
		assert.True(t, closed.IsClosed())
		assert.Empty(t, closed.ActiveNodes)
	}
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	status, body := do(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])
}
