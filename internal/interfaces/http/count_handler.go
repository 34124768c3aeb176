package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	appcounting "github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/application/dto"
	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// CountHandler maneja las peticiones HTTP del motor de conteos (protegido).
type CountHandler struct {
	create     *appcounting.CreateCountUseCase
	submit     *appcounting.SubmitCountUseCase
	transition *appcounting.TransitionUseCase
	approve    *appcounting.ApproveUseCase
	query      *appcounting.CountQueryUseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(
	create *appcounting.CreateCountUseCase,
	submit *appcounting.SubmitCountUseCase,
	transition *appcounting.TransitionUseCase,
	approve *appcounting.ApproveUseCase,
	query *appcounting.CountQueryUseCase,
) *CountHandler {
	return &CountHandler{create: create, submit: submit, transition: transition, approve: approve, query: query}
}

// Create godoc
// @Summary      Crear sesión de conteo físico
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountRequest  true  "type, warehouses, section/category (partial), item_ids (cycle), freeze_movements"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	count, err := h.create.Create(c.Context(), appcounting.CreateCountInput{
		Type:            in.Type,
		Warehouses:      in.Warehouses,
		Section:         in.Section,
		Category:        in.Category,
		FreezeMovements: in.FreezeMovements,
		CreatedBy:       userID,
		ItemIDs:         in.ItemIDs,
	})
	if err != nil {
		return statusError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCountResponse(count, nil))
}

// AddItems godoc
// @Summary      Agregar ítems a un conteo (draft/counting)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del conteo"
// @Param        body  body  dto.AddItemsRequest  true  "item_ids"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/items [post]
func (h *CountHandler) AddItems(c *fiber.Ctx) error {
	var in dto.AddItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	count, err := h.create.AddItems(c.Context(), c.Params("id"), in.ItemIDs)
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(toCountResponse(count, nil))
}

// Submit godoc
// @Summary      Registrar cantidad contada (vuelta de conteo)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del conteo"
// @Param        body  body  dto.SubmitCountRequest  true  "item_id, warehouse, quantity, notes"
// @Success      200   {object}  dto.CountItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/submissions [post]
func (h *CountHandler) Submit(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.SubmitCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.submit.Submit(c.Context(), appcounting.SubmitInput{
		CountID:   c.Params("id"),
		ItemID:    in.ItemID,
		Warehouse: in.Warehouse,
		Quantity:  in.Quantity,
		CountedBy: userID,
		Notes:     in.Notes,
	})
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// SubmitBulk godoc
// @Summary      Registrar varias cantidades contadas
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del conteo"
// @Param        body  body  dto.SubmitBulkRequest  true  "counts"
// @Success      200   {array}   dto.CountItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/submissions/bulk [post]
func (h *CountHandler) SubmitBulk(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.SubmitBulkRequest
	if err := c.BodyParser(&in); err != nil || len(in.Counts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inputs := make([]appcounting.SubmitInput, 0, len(in.Counts))
	for _, s := range in.Counts {
		inputs = append(inputs, appcounting.SubmitInput{
			CountID:   c.Params("id"),
			ItemID:    s.ItemID,
			Warehouse: s.Warehouse,
			Quantity:  s.Quantity,
			CountedBy: userID,
			Notes:     s.Notes,
		})
	}
	items, err := h.submit.SubmitBulk(c.Context(), inputs)
	if err != nil {
		return statusError(c, err)
	}
	out := make([]dto.CountItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return c.JSON(out)
}

// Transition godoc
// @Summary      Mover el conteo por su ciclo de vida
// @Description  Aristas legales: draft→counting, counting→ready_for_approval,
//	approved→closed y cancelación desde cualquier estado previo a la aprobación.
//	La arista hacia approved solo existe vía /approve.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del conteo"
// @Param        body  body  dto.TransitionRequest  true  "target"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/transition [post]
func (h *CountHandler) Transition(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	count, err := h.transition.Transition(c.Context(), c.Params("id"), in.Target, userID)
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(toCountResponse(count, nil))
}

// Approve godoc
// @Summary      Aprobar el conteo y contabilizar ajustes
// @Description  Fija las cantidades de referencia y contabiliza exactamente un
//	movimiento ADJUSTMENT por ítem con discrepancia distinta de cero. De varias
//	aprobaciones concurrentes solo una procede.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.ApproveResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/approve [post]
func (h *CountHandler) Approve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	result, err := h.approve.Approve(c.Context(), c.Params("id"), userID)
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(dto.ApproveResponse{
		Count:            toCountResponse(result.Count, nil),
		MovementsCreated: result.MovementsCreated,
	})
}

// Resume godoc
// @Summary      Reanudar una contabilización de aprobación interrumpida
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.ApproveResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/approve/resume [post]
func (h *CountHandler) Resume(c *fiber.Ctx) error {
	result, err := h.approve.Resume(c.Context(), c.Params("id"))
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(dto.ApproveResponse{
		Count:            toCountResponse(result.Count, nil),
		MovementsCreated: result.MovementsCreated,
	})
}

// GetByID godoc
// @Summary      Detalle del conteo con sus ítems
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	count, items, err := h.query.Get(c.Params("id"))
	if err != nil {
		return statusError(c, err)
	}
	return c.JSON(toCountResponse(count, items))
}

// List godoc
// @Summary      Listar conteos
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "Filtrar por estado"
// @Param        warehouse  query  string  false  "Filtrar por bodega"
// @Param        limit      query  int     false  "Tamaño de página"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.CountListResponse
// @Router       /api/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()
	list, err := h.query.List(repository.CountFilter{
		Status:    c.Query("status"),
		Warehouse: c.Query("warehouse"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return statusError(c, err)
	}
	items := make([]dto.CountResponse, 0, len(list))
	for _, count := range list {
		items = append(items, toCountResponse(count, nil))
	}
	return c.JSON(dto.CountListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// statusError mapea los errores de dominio a códigos HTTP.
func statusError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "conteo o ítem no encontrado"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "transición de estado no permitida"})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "operación no permitida en el estado actual"})
	case errors.Is(err, domain.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: "el conteo fue modificado por otra operación"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrLocked):
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{Code: "LOCKED", Message: "ítem congelado por un conteo en curso"})
	case errors.Is(err, domain.ErrLedgerUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "LEDGER_UNAVAILABLE", Message: "libro de stock no disponible"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toCountResponse(count *entity.InventoryCount, items []*entity.CountItem) dto.CountResponse {
	resp := dto.CountResponse{
		ID:               count.ID,
		CountNumber:      count.CountNumber,
		Type:             count.Type,
		Warehouses:       count.Warehouses,
		Section:          count.Section,
		Category:         count.Category,
		FreezeMovements:  count.FreezeMovements,
		Status:           count.Status,
		CreatedBy:        count.CreatedBy,
		ApprovedBy:       count.ApprovedBy,
		CreatedDate:      count.CreatedDate.Format(time.RFC3339),
		TotalItems:       count.TotalItems,
		CountedItems:     count.CountedItems,
		Discrepancies:    count.Discrepancies,
		TotalValue:       count.TotalValue,
		DiscrepancyValue: count.DiscrepancyValue,
		Version:          count.Version,
	}
	if count.StartedDate != nil {
		resp.StartedDate = count.StartedDate.Format(time.RFC3339)
	}
	if count.CompletedDate != nil {
		resp.CompletedDate = count.CompletedDate.Format(time.RFC3339)
	}
	if count.TotalItems > 0 {
		resp.Progress = float64(count.CountedItems) / float64(count.TotalItems) * 100
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	return resp
}

func toItemResponse(it *entity.CountItem) dto.CountItemResponse {
	resp := dto.CountItemResponse{
		ID:              it.ID,
		ItemID:          it.ItemID,
		Warehouse:       it.Warehouse,
		Section:         it.Section,
		Category:        it.Category,
		Unit:            it.Unit,
		SystemQuantity:  it.SystemQuantity,
		FinalQuantity:   it.SystemQuantityAtFinalization,
		CountedQuantity: it.CountedQuantity,
		UnitPrice:       it.UnitPrice,
		CountedBy:       it.CountedBy,
		Notes:           it.Notes,
	}
	if it.CountedDate != nil {
		resp.CountedDate = it.CountedDate.Format(time.RFC3339)
	}
	if d, ok := counting.ItemDiscrepancy(it); ok {
		v := counting.DiscrepancyValue(d, it.UnitPrice)
		resp.Discrepancy = &d
		resp.DiscrepancyValue = &v
	}
	for _, r := range it.Rounds {
		resp.Rounds = append(resp.Rounds, dto.RoundResponse{
			RoundNumber: r.RoundNumber,
			Quantity:    r.Quantity,
			CountedBy:   r.CountedBy,
			CountedDate: r.CountedDate.Format(time.RFC3339),
			Notes:       r.Notes,
		})
	}
	return resp
}
