package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlucero/gastos/internal/category"
	"github.com/mlucero/gastos/internal/entity"
	"github.com/mlucero/gastos/internal/entity/share"
	"github.com/mlucero/gastos/pkg/middleware"
	"github.com/mlucero/gastos/pkg/response"
)

// Handler handles HTTP requests for expense operations. Requests carrying an
// entity_id are routed to the entity service, which owns the split logic.
type Handler struct {
	service  *Service
	entities *entity.Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service, entities *entity.Service) *Handler {
	return &Handler{service: service, entities: entities}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id}/settle", h.Settle)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /expenses
// @Summary      Record an expense
// @Description  With entity_id the amount is split across the group per member shares
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense"
// @Success      201 {object} response.APIResponse{data=Expense}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if req.EntityID != nil {
		shared, err := h.entities.CreateExpense(r.Context(), *req.EntityID, userID, &entity.CreateSharedExpenseRequest{
			Amount:       req.Amount,
			Description:  req.Description,
			Date:         req.Date,
			PaidByUserID: req.PaidByUserID,
		})
		if err != nil {
			h.respondSharedError(w, err)
			return
		}
		response.JSON(w, http.StatusCreated, shared.ToResponse())
		return
	}

	expense, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to record expense")
		return
	}

	response.JSON(w, http.StatusCreated, expense)
}

// List handles GET /expenses
// @Summary      List expenses
// @Description  Personal expenses plus allocation rows from shared splits
// @Tags         expenses
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} response.APIResponse{data=[]Expense}
// @Router       /expenses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, pageSize := pagination(r)

	expenses, total, err := h.service.List(r.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(w, "Failed to list expenses")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, expenses, &response.Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

// Settle handles PATCH /expenses/{id}/settle
// @Summary      Toggle settlement on an allocation
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=Expense}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id}/settle [patch]
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	expense, err := h.service.Settle(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, err, "Failed to settle expense")
		return
	}

	response.JSON(w, http.StatusOK, expense)
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.respondError(w, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrExpenseNotFound), errors.Is(err, category.ErrCategoryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrWrongCategoryType), errors.Is(err, ErrNotAllocation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, category.ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func (h *Handler) respondSharedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEntityNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrPayerNotMember),
		errors.Is(err, share.ErrUnbalanced),
		errors.Is(err, share.ErrNoShares):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Failed to split expense")
	}
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
