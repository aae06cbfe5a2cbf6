package entity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlucero/gastos/internal/entity/share"
	"github.com/mlucero/gastos/pkg/middleware"
	"github.com/mlucero/gastos/pkg/response"
)

// Handler handles HTTP requests for entity operations
type Handler struct {
	service *Service
}

// NewHandler creates a new entity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for entity endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	// Member management (creator only)
	r.Post("/{id}/members", h.AddMember)
	r.Patch("/{id}/members/{memberId}", h.UpdateMemberShare)
	r.Delete("/{id}/members/{memberId}", h.RemoveMember)

	// Shared expenses
	r.Post("/{id}/expenses", h.CreateExpense)
	r.Get("/{id}/expenses", h.ListExpenses)

	return r
}

// Create handles POST /entities
// @Summary      Create an entity
// @Description  Create an entity whose member shares sum to 100; the creator must be among the members
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        request body CreateEntityRequest true "Entity creation request"
// @Success      201 {object} response.APIResponse{data=EntityResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /entities [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	ent, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to create entity")
		return
	}

	response.JSON(w, http.StatusCreated, ent.ToResponse())
}

// List handles GET /entities
// @Summary      List my entities
// @Description  Entities the current user created or belongs to
// @Tags         entities
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]EntityResponse}
// @Router       /entities [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entities, err := h.service.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list entities")
		return
	}

	resp := make([]*EntityResponse, len(entities))
	for i, e := range entities {
		resp[i] = e.ToResponse()
	}

	response.JSON(w, http.StatusOK, resp)
}

// GetByID handles GET /entities/{id}
// @Summary      Get entity by ID
// @Tags         entities
// @Produce      json
// @Param        id path int true "Entity ID"
// @Success      200 {object} response.APIResponse{data=EntityResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /entities/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}

	ent, err := h.service.GetForMember(r.Context(), entityID, userID)
	if err != nil {
		h.respondError(w, err, "Failed to get entity")
		return
	}

	response.JSON(w, http.StatusOK, ent.ToResponse())
}

// AddMember handles POST /entities/{id}/members
// @Summary      Add a member
// @Description  Add a registered user with a share that keeps the total at 100; shares are not rebalanced on add
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id path int true "Entity ID"
// @Param        request body AddMemberRequest true "Member to add"
// @Success      201 {object} response.APIResponse{data=EntityResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /entities/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	ent, err := h.service.AddMember(r.Context(), entityID, userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to add member")
		return
	}

	response.JSON(w, http.StatusCreated, ent.ToResponse())
}

// UpdateMemberShare handles PATCH /entities/{id}/members/{memberId}
// @Summary      Update a member's share
// @Description  Replace one member's share holding the others fixed; the total must stay at 100
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id path int true "Entity ID"
// @Param        memberId path int true "Member ID"
// @Param        request body UpdateShareRequest true "New share"
// @Success      200 {object} response.APIResponse{data=EntityResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /entities/{id}/members/{memberId} [patch]
func (h *Handler) UpdateMemberShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}
	memberID, err := parseID(r, "memberId")
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	var req UpdateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	ent, err := h.service.UpdateMemberShare(r.Context(), entityID, memberID, userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to update share")
		return
	}

	response.JSON(w, http.StatusOK, ent.ToResponse())
}

// RemoveMember handles DELETE /entities/{id}/members/{memberId}
// @Summary      Remove a member
// @Description  Remove a member and rebalance the remaining shares to 100
// @Tags         entities
// @Produce      json
// @Param        id path int true "Entity ID"
// @Param        memberId path int true "Member ID"
// @Success      200 {object} response.APIResponse{data=EntityResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /entities/{id}/members/{memberId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}
	memberID, err := parseID(r, "memberId")
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	ent, err := h.service.RemoveMember(r.Context(), entityID, memberID, userID)
	if err != nil {
		h.respondError(w, err, "Failed to remove member")
		return
	}

	response.JSON(w, http.StatusOK, ent.ToResponse())
}

// CreateExpense handles POST /entities/{id}/expenses
// @Summary      Record a shared expense
// @Description  Split an amount across the members by their stored shares; the last member absorbs the rounding remainder
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id path int true "Entity ID"
// @Param        request body CreateSharedExpenseRequest true "Shared expense"
// @Success      201 {object} response.APIResponse{data=SharedExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /entities/{id}/expenses [post]
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}

	var req CreateSharedExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	exp, err := h.service.CreateExpense(r.Context(), entityID, userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to create shared expense")
		return
	}

	response.JSON(w, http.StatusCreated, exp.ToResponse())
}

// ListExpenses handles GET /entities/{id}/expenses
// @Summary      List shared expenses
// @Tags         entities
// @Produce      json
// @Param        id path int true "Entity ID"
// @Success      200 {object} response.APIResponse{data=[]SharedExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /entities/{id}/expenses [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entityID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid entity ID")
		return
	}

	expenses, err := h.service.ListExpenses(r.Context(), entityID, userID)
	if err != nil {
		h.respondError(w, err, "Failed to list shared expenses")
		return
	}

	resp := make([]*SharedExpenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = e.ToResponse()
	}

	response.JSON(w, http.StatusOK, resp)
}

// respondError maps service errors to the HTTP boundary. Every error here is
// scoped to one request; nothing is fatal to the process.
func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEntityNotFound),
		errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrDuplicateMember):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrShareTotal),
		errors.Is(err, ErrDuplicateEmails),
		errors.Is(err, ErrCreatorNotMember),
		errors.Is(err, ErrPayerNotMember),
		errors.Is(err, share.ErrLastMember),
		errors.Is(err, share.ErrUnbalanced),
		errors.Is(err, share.ErrNoShares):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
