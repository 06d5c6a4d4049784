package handlers

import (
	"context"
	"strconv"
	"strings"

	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/models/events"
	"go.uber.org/zap"
)

const (
	Command_SetFilter    = "set-filter"
	Command_MoveRelative = "move-relative"
	Command_GetLayout    = "get-layout"
	Command_GetSpacing   = "get-spacing"
	Command_SetSpacing   = "set-spacing"
	Command_GetCrop      = "get-crop"
	Command_SetCrop      = "set-crop"
)

// LayoutController is implemented by service.LayoutService.
type LayoutController interface {
	SetLayout(ctx context.Context, name string) error
	MoveRelative(ctx context.Context, direction string) error
	CurrentLayout(ctx context.Context) (*events.LayoutStatus, error)
	CameraSpacing(ctx context.Context) (*events.Spacing, error)
	SetCameraSpacing(ctx context.Context, spacing *events.Spacing) error
	CameraCrop(ctx context.Context) (*events.CameraCrop, error)
	SetCameraCrop(ctx context.Context, crop *events.Crop) error
}

type CommandHandler struct {
	layout LayoutController
}

func NewCommandHandler(layout LayoutController) *CommandHandler {
	return &CommandHandler{layout: layout}
}

// Respond runs one command line and returns the envelope to send back.
func (h *CommandHandler) Respond(ctx context.Context, line string) interface{} {
	result, err := h.Handle(ctx, line)
	return events.NewCommandResponse(result, err)
}

// Handle parses a "verb args..." line and runs it. A nil result with a nil
// error means the command succeeded with nothing to report.
func (h *CommandHandler) Handle(ctx context.Context, line string) (interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, custerror.FormatInvalidArgument("unknown cmd: ")
	}
	verb, args := fields[0], fields[1:]

	var result interface{}
	var err error
	switch verb {
	case Command_SetFilter:
		name := strings.Join(args, " ")
		if len(name) == 0 {
			return nil, custerror.FormatInvalidArgument("missing filterName")
		}
		err = h.layout.SetLayout(ctx, name)
	case Command_MoveRelative:
		direction := strings.Join(args, " ")
		if len(direction) == 0 {
			return nil, custerror.FormatInvalidArgument("missing direction")
		}
		err = h.layout.MoveRelative(ctx, direction)
	case Command_GetLayout:
		result, err = h.layout.CurrentLayout(ctx)
	case Command_GetSpacing:
		result, err = h.layout.CameraSpacing(ctx)
	case Command_SetSpacing:
		var values [4]int
		if values, err = parseEdges(args, "missing spacing"); err != nil {
			return nil, err
		}
		err = h.layout.SetCameraSpacing(ctx, &events.Spacing{
			Top:    values[0],
			Bottom: values[1],
			Left:   values[2],
			Right:  values[3],
		})
	case Command_GetCrop:
		result, err = h.layout.CameraCrop(ctx)
	case Command_SetCrop:
		var values [4]int
		if values, err = parseEdges(args, "missing crop"); err != nil {
			return nil, err
		}
		err = h.layout.SetCameraCrop(ctx, &events.Crop{
			Top:    values[0],
			Bottom: values[1],
			Left:   values[2],
			Right:  values[3],
		})
	default:
		logger.SDebug("CommandHandler: unknown command", zap.String("verb", verb))
		return nil, custerror.FormatInvalidArgument("unknown cmd: %s", verb)
	}

	if err != nil {
		logger.SError("CommandHandler: command failed",
			zap.String("verb", verb),
			zap.Error(err))
		return nil, err
	}
	logger.SDebug("CommandHandler: command success", zap.String("verb", verb))
	return result, nil
}

// parseEdges reads top, bottom, left and right in that order.
func parseEdges(args []string, missing string) ([4]int, error) {
	var values [4]int
	if len(args) < len(values) {
		return values, custerror.FormatInvalidArgument("%s", missing)
	}
	for i := range values {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return values, custerror.FormatInvalidArgument("invalid number: %s", args[i])
		}
		values[i] = v
	}
	return values, nil
}
