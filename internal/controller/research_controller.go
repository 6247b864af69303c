package controller

import (
	"errors"

	"leaf-research-be/internal/dto"
	"leaf-research-be/internal/pkg/serverutils"
	"leaf-research-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	GetThreads(ctx *fiber.Ctx) error
	CreateThread(ctx *fiber.Ctx) error
	UpdateThread(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type researchController struct {
	service  service.IResearchService
	consumer service.IConsumerService
}

func NewResearchController(service service.IResearchService, consumer service.IConsumerService) IResearchController {
	return &researchController{service: service, consumer: consumer}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/send", c.Send)
	h.Get("/threads", c.GetThreads)
	h.Post("/threads", c.CreateThread)
	h.Put("/threads/:id", c.UpdateThread)
	h.Delete("/threads/:id", c.DeleteThread)
	h.Get("/threads/:id/messages", c.GetMessages)
	h.Get("/stats", c.Stats)
}

func (c *researchController) Send(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *researchController) GetThreads(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetThreads(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all threads", res))
}

func (c *researchController) CreateThread(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateThread(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create thread", res))
}

func (c *researchController) UpdateThread(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	id, err := threadIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateThread(ctx.UserContext(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update thread", res))
}

func (c *researchController) DeleteThread(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	id, err := threadIdFrom(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteThread(ctx.UserContext(), userId, id); err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete thread", nil))
}

func (c *researchController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	id, err := threadIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetMessages(ctx.UserContext(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *researchController) Stats(ctx *fiber.Ctx) error {
	if c.consumer == nil {
		return ctx.JSON(serverutils.SuccessResponse[any]("Event consumer disabled", nil))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get research stats", c.consumer.Stats()))
}

func userIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}
	return userId, nil
}

func threadIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid thread id")
	}
	return id, nil
}

func mapServiceError(err error) error {
	if errors.Is(err, service.ErrThreadNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Thread not found")
	}
	return err
}
