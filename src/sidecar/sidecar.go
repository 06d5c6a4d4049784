package sidecar

import (
	"context"
	"errors"
	"time"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/models/events"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Registration func(app *fiber.App)

// HttpSidecar exposes the layout commands over HTTP next to the command
// socket.
type HttpSidecar struct {
	app     *fiber.App
	configs *configs.HttpConfigs
}

func NewHttpSidecar(c *configs.HttpConfigs, registration Registration) *HttpSidecar {
	app := fiber.New(fiber.Config{
		AppName:               c.Name,
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           5 * time.Second,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          GlobalErrorHandler(),
	})
	app.Use(recover.New())
	if registration != nil {
		registration(app)
	}
	return &HttpSidecar{
		app:     app,
		configs: c,
	}
}

func (s *HttpSidecar) Name() string {
	return s.configs.Name
}

func (s *HttpSidecar) App() *fiber.App {
	return s.app
}

func (s *HttpSidecar) Start() error {
	logger.SInfo("Starting HTTP sidecar",
		zap.String("addr", s.configs.Addr()))
	if err := s.app.Listen(s.configs.Addr()); err != nil {
		logger.SError("Failed to start HTTP sidecar",
			zap.Error(err))
		return err
	}
	return nil
}

func (s *HttpSidecar) Stop(ctx context.Context) error {
	logger.SInfo("Stopping HTTP sidecar")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		logger.SError("Failed to stop HTTP sidecar",
			zap.Error(err))
		return err
	}
	return nil
}

// GlobalErrorHandler writes the failure envelope. Bad input maps to 400,
// everything else the layout code returns maps to 500.
func GlobalErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if errors.Is(err, custerror.ErrorInvalidArgument) {
			status = fiber.StatusBadRequest
		}
		if status >= fiber.StatusInternalServerError {
			logger.SError("HTTP sidecar request failed",
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(status).JSON(events.NewCommandResponse(nil, err))
	}
}
