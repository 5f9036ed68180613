package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/inventory"
	"github.com/tu-usuario/almacen-api/internal/domain"
)

// InventoryHandler maneja las peticiones HTTP de inventario: ajustes
// manuales, consultas de stock, lista de reposición e historial de
// transacciones (protegido).
type InventoryHandler struct {
	adjust *inventory.AdjustmentUseCase
	query  *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(adjust *inventory.AdjustmentUseCase, query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{adjust: adjust, query: query}
}

// RegisterAdjustment godoc
// @Summary      Registrar ajuste manual de inventario
// @Description  Suma (o resta, con cantidad negativa) disponible en una bodega
//               dejando una transacción de tipo adjustment con el motivo.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterAdjustmentRequest  true  "product_id, warehouse_id, quantity (≠0), reason"
// @Success      200   {object}  dto.InventoryRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) RegisterAdjustment(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.adjust.RegisterAdjustment(c.Context(), userID, in)
	if err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity distinta de cero y reason son requeridos"})
		}
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto o bodega no encontrado"})
		}
		if err == domain.ErrInsufficientInventory {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_INVENTORY", Message: "inventario insuficiente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ListByWarehouse godoc
// @Summary      Inventario de una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   string  true   "ID de la bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.InventoryRecordResponse
// @Router       /api/inventory/warehouses/{warehouse_id} [get]
func (h *InventoryHandler) ListByWarehouse(c *fiber.Ctx) error {
	warehouseID := c.Params("warehouse_id")
	if warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "warehouse_id es requerido"})
	}
	limit, offset := pageParams(c)
	out, err := h.query.ListByWarehouse(c.Context(), warehouseID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ListByProduct godoc
// @Summary      Stock de un producto en todas las bodegas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {array}  dto.InventoryRecordResponse
// @Router       /api/inventory/products/{product_id} [get]
func (h *InventoryHandler) ListByProduct(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "product_id es requerido"})
	}
	out, err := h.query.ListByProduct(c.Context(), productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// GetReorderList godoc
// @Summary      Lista de reposición
// @Description  Devuelve los productos en o por debajo de su punto de reorden
//               con la cantidad sugerida de pedido.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega. Vacío = stock global."
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/reorder-list [get]
func (h *InventoryHandler) GetReorderList(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	list, err := h.query.ReorderList(c.Context(), warehouseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{
		"total":       len(list),
		"suggestions": list,
	})
}

// ListTransactions godoc
// @Summary      Historial de transacciones de inventario
// @Description  Filtra por product_id o warehouse_id (uno de los dos) y
//               opcionalmente por rango de fechas RFC 3339.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "ID del producto"
// @Param        warehouse_id  query  string  false  "ID de la bodega"
// @Param        from          query  string  false  "Fecha inicial (RFC 3339)"
// @Param        to            query  string  false  "Fecha final (RFC 3339)"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.TransactionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" && warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id o warehouse_id es requerido"})
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC 3339)"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC 3339)"})
	}
	limit, offset := pageParams(c)

	var out []dto.TransactionResponse
	if productID != "" {
		out, err = h.query.TransactionsByProduct(c.Context(), productID, from, to, limit, offset)
	} else {
		out, err = h.query.TransactionsByWarehouse(c.Context(), warehouseID, from, to, limit, offset)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ListTransactionsByReference godoc
// @Summary      Transacciones ligadas a un documento
// @Description  Historial de una orden de compra, orden de venta o traslado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        reference_id  path  string  true  "ID del documento de referencia"
// @Success      200  {array}  dto.TransactionResponse
// @Router       /api/inventory/transactions/reference/{reference_id} [get]
func (h *InventoryHandler) ListTransactionsByReference(c *fiber.Ctx) error {
	referenceID := c.Params("reference_id")
	if referenceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "reference_id es requerido"})
	}
	out, err := h.query.TransactionsByReference(c.Context(), referenceID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
