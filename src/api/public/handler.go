package publicapi

import (
	"github.com/CE-Thesis-2023/camctl/src/biz/handlers"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/models/events"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LayoutApi struct {
	controller handlers.LayoutController
}

func NewLayoutApi(controller handlers.LayoutController) *LayoutApi {
	return &LayoutApi{controller: controller}
}

func (a *LayoutApi) GETLayout(ctx *fiber.Ctx) error {
	resp, err := a.controller.CurrentLayout(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(events.NewCommandResponse(resp, nil))
}

func (a *LayoutApi) POSTFilter(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if err := a.controller.SetLayout(ctx.UserContext(), name); err != nil {
		return err
	}
	logger.SDebug("POSTFilter: success", zap.String("name", name))
	return ctx.JSON(events.NewCommandResponse(nil, nil))
}

func (a *LayoutApi) POSTMove(ctx *fiber.Ctx) error {
	direction := ctx.Params("direction")
	if err := a.controller.MoveRelative(ctx.UserContext(), direction); err != nil {
		return err
	}
	logger.SDebug("POSTMove: success", zap.String("direction", direction))
	return ctx.JSON(events.NewCommandResponse(nil, nil))
}

func (a *LayoutApi) GETSpacing(ctx *fiber.Ctx) error {
	resp, err := a.controller.CameraSpacing(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(events.NewCommandResponse(resp, nil))
}

func (a *LayoutApi) PUTSpacing(ctx *fiber.Ctx) error {
	var req events.Spacing
	if err := ctx.BodyParser(&req); err != nil {
		return custerror.FormatInvalidArgument("invalid spacing: %s", err)
	}
	if err := a.controller.SetCameraSpacing(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(events.NewCommandResponse(nil, nil))
}

func (a *LayoutApi) GETCrop(ctx *fiber.Ctx) error {
	resp, err := a.controller.CameraCrop(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(events.NewCommandResponse(resp, nil))
}

func (a *LayoutApi) PUTCrop(ctx *fiber.Ctx) error {
	var req events.Crop
	if err := ctx.BodyParser(&req); err != nil {
		return custerror.FormatInvalidArgument("invalid crop: %s", err)
	}
	if err := a.controller.SetCameraCrop(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(events.NewCommandResponse(nil, nil))
}

func GETHealthcheck(ctx *fiber.Ctx) error {
	return ctx.SendStatus(fiber.StatusOK)
}
