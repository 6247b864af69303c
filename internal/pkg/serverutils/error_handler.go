package serverutils

import (
	"errors"

	"leaf-research-be/pkg/rag/executor"
	"leaf-research-be/pkg/rag/generation"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the
// BaseResponse envelope with a status per error kind.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusFor maps an error onto an HTTP status and a user-facing message.
func StatusFor(err error) (int, string) {
	var (
		fiberErr    *fiber.Error
		reqErr      *ValidationError
		pipelineErr *executor.ValidationError
		genErr      *generation.Error
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.As(err, &reqErr):
		return fiber.StatusBadRequest, reqErr.Error()
	case errors.As(err, &pipelineErr):
		return fiber.StatusBadRequest, pipelineErr.Error()
	case errors.As(err, &genErr):
		switch genErr.Kind {
		case generation.KindQuota:
			return fiber.StatusTooManyRequests, "API quota exceeded"
		case generation.KindContentBlocked:
			return fiber.StatusBadRequest, "Content was blocked by safety settings"
		case generation.KindAuth:
			return fiber.StatusInternalServerError, "Invalid or missing API key"
		default:
			return fiber.StatusInternalServerError, "Failed to generate response: " + genErr.Message
		}
	}
	return fiber.StatusInternalServerError, err.Error()
}
