package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hostdeck/hostdeck/internal/api/dto"
	"github.com/hostdeck/hostdeck/internal/api/middleware"
	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/utils"
	"github.com/hostdeck/hostdeck/internal/pkg/validator"
)

// LedgerHandler serves the resource ledger: the authenticated view plus the
// on-demand usage refresh.
type LedgerHandler struct {
	accounts   ledger.Accounts
	reconciler ledger.Reconciler
	logger     *logger.Logger
	validator  *validator.Validator
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(accounts ledger.Accounts, reconciler ledger.Reconciler, log *logger.Logger, val *validator.Validator) *LedgerHandler {
	return &LedgerHandler{
		accounts:   accounts,
		reconciler: reconciler,
		logger:     log,
		validator:  val,
	}
}

// Get returns the authenticated user's ledger
// @Summary Get own ledger
// @Tags Ledger
// @Produce json
// @Success 200 {object} dto.UserDTO "Ledger"
// @Router /ledger [get]
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	u, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// Refresh reconciles the authenticated user's usage against the panel
// @Summary Refresh usage from the panel
// @Tags Ledger
// @Produce json
// @Success 200 {object} ledger.ReconcileResult "Reconciliation result"
// @Failure 409 {object} utils.ErrorResponse "No linked panel account"
// @Failure 503 {object} utils.ErrorResponse "Panel unavailable"
// @Router /ledger/refresh [post]
func (h *LedgerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	result, err := h.reconciler.Reconcile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}

// UserAdminHandler serves the admin account operations.
type UserAdminHandler struct {
	accounts   ledger.Accounts
	reconciler ledger.Reconciler
	logger     *logger.Logger
	validator  *validator.Validator
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(accounts ledger.Accounts, reconciler ledger.Reconciler, log *logger.Logger, val *validator.Validator) *UserAdminHandler {
	return &UserAdminHandler{
		accounts:   accounts,
		reconciler: reconciler,
		logger:     log,
		validator:  val,
	}
}

// List returns users with pagination
// @Summary List users
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.PaginatedResponse "Users"
// @Router /admin/users [get]
func (h *UserAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePaginationParams(r)

	users, total, err := h.accounts.List(r.Context(), params.PageSize, params.Offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, dto.NewUserDTO(u))
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.PageSize, total))
}

// Get returns one user
// @Summary Get user
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserDTO "User"
// @Router /admin/users/{id} [get]
func (h *UserAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	u, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// UpdateProfile changes a user's email and username
// @Summary Update user profile
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/users/{id} [put]
func (h *UserAdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), id, req.Email, req.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// AdjustCoins credits or debits a user's coins
// @Summary Adjust coins
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.AdjustCoinsRequest true "Delta"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/users/{id}/coins [post]
func (h *UserAdminHandler) AdjustCoins(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req dto.AdjustCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	u, err := h.accounts.AdjustCoins(r.Context(), id, req.Delta)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// SetAdmin grants or removes the admin rank
// @Summary Set admin rank
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.SetAdminRequest true "Admin flag"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/users/{id}/admin [post]
func (h *UserAdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req dto.SetAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	u, err := h.accounts.SetAdmin(r.Context(), id, req.Admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// LinkPanel attaches an external panel account
// @Summary Link panel account
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.LinkPanelRequest true "Panel user"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/users/{id}/panel [post]
func (h *UserAdminHandler) LinkPanel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req dto.LinkPanelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	u, err := h.accounts.LinkPanelAccount(r.Context(), id, req.PanelUserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// Reconcile refreshes one user's usage from the panel
// @Summary Reconcile user usage
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} ledger.ReconcileResult "Reconciliation result"
// @Router /admin/users/{id}/reconcile [post]
func (h *UserAdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}

// Delete removes a user
// @Summary Delete user
// @Tags Admin
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse "Deleted"
// @Router /admin/users/{id} [delete]
func (h *UserAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "User deleted", nil)
}
