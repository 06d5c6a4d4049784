package publicapi

import (
	"github.com/CE-Thesis-2023/camctl/src/biz/handlers"

	"github.com/gofiber/fiber/v2"
)

func ServiceRegistration(controller handlers.LayoutController) func(app *fiber.App) {
	return func(app *fiber.App) {
		api := NewLayoutApi(controller)

		app.Get("/layout", api.GETLayout)

		layoutGroup := app.Group("/layout")
		layoutGroup.Post("/filter/:name", api.POSTFilter)
		layoutGroup.Post("/move/:direction", api.POSTMove)
		layoutGroup.Get("/spacing", api.GETSpacing)
		layoutGroup.Put("/spacing", api.PUTSpacing)
		layoutGroup.Get("/crop", api.GETCrop)
		layoutGroup.Put("/crop", api.PUTCrop)

		app.Get("/healthcheck", GETHealthcheck)
	}
}
