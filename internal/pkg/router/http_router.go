package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spectrahq/ghosthunter/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", controllers.HandleRoot)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
