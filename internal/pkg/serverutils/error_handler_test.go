package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"leaf-research-be/pkg/rag/executor"
	"leaf-research-be/pkg/rag/generation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "Thread not found"), 404, "Thread not found"},
		{"pipeline validation", &executor.ValidationError{Field: "query", Message: "must not be empty"}, 400, "invalid query: must not be empty"},
		{"quota", &generation.Error{Kind: generation.KindQuota, Message: "429"}, 429, "API quota exceeded"},
		{"blocked", &generation.Error{Kind: generation.KindContentBlocked, Message: "SAFETY"}, 400, "Content was blocked by safety settings"},
		{"auth", &generation.Error{Kind: generation.KindAuth, Message: "API key not valid"}, 500, "Invalid or missing API key"},
		{"unknown", &generation.Error{Kind: generation.KindUnknown, Message: "boom"}, 500, "Failed to generate response: boom"},
		{"wrapped", fmt.Errorf("send: %w", &generation.Error{Kind: generation.KindQuota}), 429, "API quota exceeded"},
		{"other", errors.New("db down"), 500, "db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := StatusFor(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestErrorHandlerMiddleware_WritesEnvelope(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/quota", func(ctx *fiber.Ctx) error {
		return &generation.Error{Kind: generation.KindQuota, Message: "RESOURCE_EXHAUSTED"}
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("fine", 1))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/quota", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body BaseResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, 429, body.Code)
	assert.Equal(t, "API quota exceeded", body.Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Title string `json:"title" validate:"required,max=5"`
	}

	assert.NoError(t, ValidateRequest(request{Title: "ok"}))

	err := ValidateRequest(request{Title: "too long"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "max", verr.Fields["Title"])

	code, _ := StatusFor(err)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
