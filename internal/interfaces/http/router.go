package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine *inventory.Engine
	Log    *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log != nil {
		app.Use(RequestLogger(deps.Log))
	}

	items := NewItemHandler(deps.Engine)
	app.Get("/:item/quantity", items.GetQuantity)
	app.Post("/:item/add", items.AddLot)
	app.Post("/:item/sell", items.Sell)
	app.Get("/:item/lots", items.ListLots)
}
