package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-hr/treasury/internal/logging"
)

func post(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/sepay", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHandlerAcknowledges(t *testing.T) {
	p := newPipeline(t)
	app := fiber.New()
	app.Post("/webhooks/sepay", NewHandler(p.svc, logging.Discard()).Receive)

	resp := post(t, app, string(payload("1", "2024-05-01 10:00:00", "in", 5, 5, "x")))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, app, `{"content":"no identity"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, app, `{"id":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
