package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/sales"
	"github.com/tu-usuario/almacen-api/internal/domain"
)

// SalesOrderHandler maneja el ciclo de vida de órdenes de venta (protegido).
type SalesOrderHandler struct {
	uc *sales.SalesOrderUseCase
}

// NewSalesOrderHandler construye el handler.
func NewSalesOrderHandler(uc *sales.SalesOrderUseCase) *SalesOrderHandler {
	return &SalesOrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de venta (reserva inventario)
// @Description  Crea la orden en pending reservando el stock de cada línea;
//               si alguna bodega no alcanza, nada queda escrito.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "customer_name, items"
// @Success      201   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.CreateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), userID, in)
	if err != nil {
		return soError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Process godoc
// @Summary      Pasar orden a preparación (pending → processing)
// @Tags         sales-orders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/process [post]
func (h *SalesOrderHandler) Process(c *fiber.Ctx) error {
	if err := h.uc.Process(c.Context(), c.Params("id")); err != nil {
		return soError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Ship godoc
// @Summary      Despachar orden (processing → shipped)
// @Description  Consume lo reservado de cada línea y deja una transacción sale
//               por item. Todo o nada.
// @Tags         sales-orders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/ship [post]
func (h *SalesOrderHandler) Ship(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if err := h.uc.Ship(c.Context(), userID, c.Params("id")); err != nil {
		return soError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Deliver godoc
// @Summary      Confirmar entrega (shipped → delivered)
// @Tags         sales-orders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/deliver [post]
func (h *SalesOrderHandler) Deliver(c *fiber.Ctx) error {
	if err := h.uc.Deliver(c.Context(), c.Params("id")); err != nil {
		return soError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Cancel godoc
// @Summary      Cancelar orden de venta (pending|processing → cancelled)
// @Description  Libera las reservas y deja una transacción adjustment de
//               restauración por item.
// @Tags         sales-orders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/cancel [post]
func (h *SalesOrderHandler) Cancel(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if err := h.uc.Cancel(c.Context(), userID, c.Params("id")); err != nil {
		return soError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReturnItems godoc
// @Summary      Registrar devolución sobre una orden entregada
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReturnItemsRequest  true  "item_id -> cantidad devuelta"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/returns [post]
func (h *SalesOrderHandler) ReturnItems(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.ReturnItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.ReturnItems(c.Context(), userID, c.Params("id"), in); err != nil {
		return soError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener orden de venta por ID
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return soError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes de venta
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.SalesOrderListResponse
// @Router       /api/sales-orders [get]
func (h *SalesOrderHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.List(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return soError(c, err)
	}
	return c.JSON(out)
}

func soError(c *fiber.Ctx, err error) error {
	if err == domain.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "orden de venta no encontrada"})
	}
	if err == domain.ErrInvalidInput {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	if err == domain.ErrInvalidTransition {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "transición de estado no permitida"})
	}
	if err == domain.ErrInsufficientInventory {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_INVENTORY", Message: "inventario insuficiente"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
