package http

import (
	"errors"
	"math"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/perecederos-api/internal/application/dto"
	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/internal/domain"
)

// ItemHandler maneja las peticiones HTTP de inventario por ítem.
type ItemHandler struct {
	engine *inventory.Engine
	now    func() time.Time
}

// NewItemHandler construye el handler.
func NewItemHandler(engine *inventory.Engine) *ItemHandler {
	return &ItemHandler{engine: engine, now: time.Now}
}

// GetQuantity godoc
// @Summary      Cantidad disponible
// @Description  Suma de los lotes vigentes del ítem y el vencimiento más próximo (ms epoch, null si no hay lotes).
// @Tags         items
// @Produce      json
// @Param        item  path  string  true  "Nombre del ítem"
// @Success      200   {object}  dto.QuantityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /{item}/quantity [get]
func (h *ItemHandler) GetQuantity(c *fiber.Ctx) error {
	item, ok := itemParam(c)
	if !ok {
		return badRequest(c, "ítem inválido")
	}
	summary, err := h.engine.GetAvailable(c.UserContext(), item)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewQuantityResponse(summary))
}

// AddLot godoc
// @Summary      Agregar lote
// @Description  Inserta un lote nuevo; nunca se fusiona con lotes existentes.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        item  path  string             true  "Nombre del ítem"
// @Param        body  body  dto.AddLotRequest  true  "quantity (>0) y expiry (ms epoch)"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /{item}/add [post]
func (h *ItemHandler) AddLot(c *fiber.Ctx) error {
	item, ok := itemParam(c)
	if !ok {
		return badRequest(c, "ítem inválido")
	}
	var in dto.AddLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	quantity, ok := positiveQuantity(in.Quantity)
	if !ok {
		return badRequest(c, "quantity debe ser un entero positivo")
	}
	if in.Expiry == nil || *in.Expiry == 0 {
		return badRequest(c, "expiry es obligatorio (ms desde epoch)")
	}

	if err := h.engine.AddLot(c.UserContext(), item, quantity, time.UnixMilli(*in.Expiry)); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "lote agregado"})
}

// Sell godoc
// @Summary      Vender unidades
// @Description  Descuenta la cantidad consumiendo primero los lotes que vencen antes. Todo o nada.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        item  path  string           true  "Nombre del ítem"
// @Param        body  body  dto.SellRequest  true  "quantity (>0)"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /{item}/sell [post]
func (h *ItemHandler) Sell(c *fiber.Ctx) error {
	item, ok := itemParam(c)
	if !ok {
		return badRequest(c, "ítem inválido")
	}
	var in dto.SellRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	quantity, ok := positiveQuantity(in.Quantity)
	if !ok {
		return badRequest(c, "quantity debe ser un entero positivo")
	}

	if err := h.engine.Sell(c.UserContext(), item, quantity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "venta registrada"})
}

// ListLots godoc
// @Summary      Listar lotes
// @Description  Todos los lotes almacenados del ítem, vigentes o vencidos, ordenados por vencimiento.
// @Tags         items
// @Produce      json
// @Param        item  path  string  true  "Nombre del ítem"
// @Success      200   {object}  dto.ListLotsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /{item}/lots [get]
func (h *ItemHandler) ListLots(c *fiber.Ctx) error {
	item, ok := itemParam(c)
	if !ok {
		return badRequest(c, "ítem inválido")
	}
	lots, err := h.engine.ListLots(c.UserContext(), item)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListLotsResponse(lots, h.now()))
}

// itemParam devuelve el ítem de la ruta ya decodificado (%20, %C3%A9, ...).
func itemParam(c *fiber.Ctx) (string, bool) {
	item, err := url.PathUnescape(c.Params("item"))
	if err != nil {
		return "", false
	}
	return item, true
}

// positiveQuantity valida que la cantidad exista, sea > 0 y quepa en la columna INTEGER.
func positiveQuantity(q *int64) (int, bool) {
	if q == nil || *q <= 0 || *q > math.MaxInt32 {
		return 0, false
	}
	return int(*q), true
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}

// writeError traduce los errores del motor a respuestas HTTP. Los fallos de almacén no exponen detalles.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return badRequest(c, "datos inválidos")
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_QUANTITY", Message: "cantidad insuficiente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "QUERY_FAILURE", Message: "no fue posible completar la operación, intente más tarde"})
	}
}
