package serverutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Url string `json:"url" validate:"required,url"`
}

func runWithError(t *testing.T, err error) (int, BaseResponse[any]) {
	t.Helper()
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", func(ctx *fiber.Ctx) error { return err })

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	body, _ := io.ReadAll(resp.Body)

	var out BaseResponse[any]
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestErrorHandlerMapsAppError(t *testing.T) {
	code, body := runWithError(t, Conflict("no video ingested yet"))
	assert.Equal(t, 409, code)
	assert.False(t, body.Success)
	assert.Equal(t, "no video ingested yet", body.Message)
}

func TestErrorHandlerMapsWrappedAppError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NotFound("session not found"))
	code, _ := runWithError(t, wrapped)
	assert.Equal(t, 404, code)
}

func TestErrorHandlerMapsFiberError(t *testing.T) {
	code, body := runWithError(t, fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"))
	assert.Equal(t, 422, code)
	assert.Equal(t, "bad body", body.Message)
}

func TestErrorHandlerMapsValidation(t *testing.T) {
	code, body := runWithError(t, ValidateRequest(sampleRequest{}))
	assert.Equal(t, 400, code)
	assert.Equal(t, "Url is required", body.Message)
}

func TestErrorHandlerDefaultsTo500(t *testing.T) {
	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	code, body := runWithError(t, errors.New("pq: password authentication failed for user \"rag\""))
	assert.Equal(t, 500, code)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, body.Message, "password")
	assert.Contains(t, logged.String(), "password authentication failed")
}

func TestSuccessResponse(t *testing.T) {
	res := SuccessResponse("ok", map[string]int{"chunks": 3})
	assert.True(t, res.Success)
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, 3, res.Data["chunks"])
}
