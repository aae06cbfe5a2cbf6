package income

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlucero/gastos/internal/category"
	"github.com/mlucero/gastos/pkg/middleware"
	"github.com/mlucero/gastos/pkg/response"
)

// Handler handles HTTP requests for income operations
type Handler struct {
	service *Service
}

// NewHandler creates a new income handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for income endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /incomes
// @Summary      Record an income
// @Tags         incomes
// @Accept       json
// @Produce      json
// @Param        request body CreateIncomeRequest true "Income"
// @Success      201 {object} response.APIResponse{data=Income}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /incomes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	income, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to record income")
		return
	}

	response.JSON(w, http.StatusCreated, income)
}

// List handles GET /incomes
// @Summary      List incomes
// @Tags         incomes
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} response.APIResponse{data=[]Income}
// @Router       /incomes [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, pageSize := pagination(r)

	incomes, total, err := h.service.List(r.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(w, "Failed to list incomes")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, incomes, &response.Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

// Delete handles DELETE /incomes/{id}
// @Summary      Delete an income
// @Tags         incomes
// @Produce      json
// @Param        id path int true "Income ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /incomes/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid income ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.respondError(w, err, "Failed to delete income")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Income deleted successfully"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrIncomeNotFound), errors.Is(err, category.ErrCategoryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrWrongCategoryType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, category.ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
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
