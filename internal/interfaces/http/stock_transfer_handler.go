package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/transfer"
	"github.com/tu-usuario/almacen-api/internal/domain"
)

// StockTransferHandler maneja el ciclo de vida de traslados entre bodegas (protegido).
type StockTransferHandler struct {
	uc *transfer.StockTransferUseCase
}

// NewStockTransferHandler construye el handler.
func NewStockTransferHandler(uc *transfer.StockTransferUseCase) *StockTransferHandler {
	return &StockTransferHandler{uc: uc}
}

// Create godoc
// @Summary      Crear traslado entre bodegas (pending)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "from_warehouse_id, to_warehouse_id, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *StockTransferHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), userID, in)
	if err != nil {
		return transferError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Dispatch godoc
// @Summary      Despachar traslado (pending → in_transit)
// @Tags         transfers
// @Security     Bearer
// @Param        id  path  string  true  "ID del traslado"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/dispatch [post]
func (h *StockTransferHandler) Dispatch(c *fiber.Ctx) error {
	if err := h.uc.Dispatch(c.Context(), c.Params("id")); err != nil {
		return transferError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Complete godoc
// @Summary      Completar traslado (in_transit → completed)
// @Description  Mueve el disponible de la bodega origen a la destino dejando
//               transacciones transfer_out / transfer_in por item. Todo o nada;
//               con dos Complete concurrentes exactamente uno gana.
// @Tags         transfers
// @Security     Bearer
// @Param        id  path  string  true  "ID del traslado"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/complete [post]
func (h *StockTransferHandler) Complete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if err := h.uc.Complete(c.Context(), userID, c.Params("id")); err != nil {
		return transferError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Cancel godoc
// @Summary      Cancelar traslado (pending|in_transit → cancelled)
// @Tags         transfers
// @Security     Bearer
// @Param        id  path  string  true  "ID del traslado"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *StockTransferHandler) Cancel(c *fiber.Ctx) error {
	if err := h.uc.Cancel(c.Context(), c.Params("id")); err != nil {
		return transferError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener traslado por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *StockTransferHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *StockTransferHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.List(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(out)
}

func transferError(c *fiber.Ctx, err error) error {
	if err == domain.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado no encontrado"})
	}
	if err == domain.ErrInvalidInput {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	if err == domain.ErrInvalidTransition {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "transición de estado no permitida"})
	}
	if err == domain.ErrInsufficientInventory {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_INVENTORY", Message: "inventario insuficiente en la bodega origen"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
