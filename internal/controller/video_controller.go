package controller

import (
	"yt-chatbot-be/internal/dto"
	"yt-chatbot-be/internal/pkg/serverutils"
	"yt-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVideoController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type videoController struct {
	ingestionService service.IIngestionService
}

func NewVideoController(ingestionService service.IIngestionService) IVideoController {
	return &videoController{
		ingestionService: ingestionService,
	}
}

func (c *videoController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/video/v1")
	h.Post("ingest", c.Ingest)
	h.Get("current", c.Current)
	h.Delete("current", c.Reset)
}

func (c *videoController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestVideoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.ingestionService.Ingest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Video processed successfully", res))
}

func (c *videoController) Current(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get current video", c.ingestionService.Current()))
}

func (c *videoController) Reset(ctx *fiber.Ctx) error {
	if err := c.ingestionService.Reset(ctx.UserContext()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Video cleared", nil))
}
