package controller

import (
	"ai-docreview-be/internal/apperrors"
	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/pkg/serverutils"
	"ai-docreview-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ILearningController interface {
	RegisterRoutes(r fiber.Router)
	Export(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type learningController struct {
	learningService service.ILearningService
}

func NewLearningController(learningService service.ILearningService) ILearningController {
	return &learningController{
		learningService: learningService,
	}
}

func (c *learningController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/learning/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("export", c.Export)
	h.Get("entries", c.List)
	h.Delete("entries/:id", c.Delete)
}

func (c *learningController) Export(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ExportLearningRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.learningService.ExportLearning(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *learningController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.learningService.ListLearningEntries(ctx.Context(), userId, ctx.Query("project_key"))
	if err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *learningController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	entryId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperrors.Validation("malformed id")
	}

	if err := c.learningService.DeleteLearningEntry(ctx.Context(), userId, entryId); err != nil {
		return err
	}
	return serverutils.SuccessResponse(ctx, fiber.StatusOK, fiber.Map{"deleted": true})
}
