package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workdesk/workdesk/pkg/auth"
	"github.com/workdesk/workdesk/pkg/cmd"
	"github.com/workdesk/workdesk/pkg/flows/docverify"
	"github.com/workdesk/workdesk/pkg/persistence/memory"
	"github.com/workdesk/workdesk/pkg/testutil"
	"github.com/workdesk/workdesk/pkg/workflow"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	reg, err := cmd.NewRegistry(slog.Default())
	require.NoError(t, err)

	router := workflow.NewRouter(
		reg,
		memory.NewPersistence(),
		auth.NewStatic(map[string][]string{docverify.RoleReviewer: {"rita"}}),
		slog.Default(),
		workflow.WithClock(testutil.ManualClock()),
	)

	return NewAPI(slog.Default(), router).App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Workdesk API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CreateDocVerify(t *testing.T) {
	app := setupTestApp(t)

	payload, err := json.Marshal(map[string]any{
		"data": map[string]any{"applicant": "ada", "amount": 100},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows/DocVerify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "DocVerify", created["workflow_type"])
	assert.Len(t, created["active_nodes"], 1)
}
