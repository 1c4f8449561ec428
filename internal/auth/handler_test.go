package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	svc, alice := newAuth(t)
	app := fiber.New()
	app.Post("/auth/login", NewHandler(svc).Login)

	login := func(body string) *http.Response {
		req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := login(`{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, alice.ID, body.ActorID)
	assert.NotEmpty(t, body.AccessToken)

	resp = login(`{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
