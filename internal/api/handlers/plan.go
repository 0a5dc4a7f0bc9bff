package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hostdeck/hostdeck/internal/api/dto"
	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/plan"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/utils"
	"github.com/hostdeck/hostdeck/internal/pkg/validator"
	"github.com/hostdeck/hostdeck/internal/services"
)

// PlanHandler handles plan catalog and entitlement requests
type PlanHandler struct {
	plans        *services.PlanService
	entitlements ledger.Entitlements
	logger       *logger.Logger
	validator    *validator.Validator
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans *services.PlanService, entitlements ledger.Entitlements, log *logger.Logger, val *validator.Validator) *PlanHandler {
	return &PlanHandler{
		plans:        plans,
		entitlements: entitlements,
		logger:       log,
		validator:    val,
	}
}

// List returns the publicly visible plans
// @Summary List visible plans
// @Tags Plans
// @Produce json
// @Success 200 {array} plan.Plan "Plans"
// @Router /plans [get]
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context(), true)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, plans)
}

// ListAll returns every plan including hidden ones
// @Summary List all plans
// @Tags Admin
// @Produce json
// @Success 200 {array} plan.Plan "Plans"
// @Router /admin/plans [get]
func (h *PlanHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context(), false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, plans)
}

// Get returns one plan
// @Summary Get plan
// @Tags Plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} plan.Plan "Plan"
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	p, err := h.plans.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

// Create creates a plan
// @Summary Create plan
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.PlanRequest true "Plan"
// @Success 201 {object} plan.Plan "Created plan"
// @Router /admin/plans [post]
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	p := &plan.Plan{
		Name:         req.Name,
		Description:  req.Description,
		Resources:    req.Resources,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Visible:      req.Visible,
	}
	if err := h.plans.Create(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, p)
}

// Update updates a plan
// @Summary Update plan
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param request body dto.PlanRequest true "Plan"
// @Success 200 {object} plan.Plan "Updated plan"
// @Router /admin/plans/{id} [put]
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	req, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	p := &plan.Plan{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		Resources:    req.Resources,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Visible:      req.Visible,
	}
	if err := h.plans.Update(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

// Delete removes a plan from the catalog
// @Summary Delete plan
// @Tags Admin
// @Param id path int true "Plan ID"
// @Success 200 {object} utils.SuccessResponse "Deleted"
// @Router /admin/plans/{id} [delete]
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.plans.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Plan deleted", nil)
}

// Grant applies a plan to a user
// @Summary Grant plan
// @Tags Admin
// @Produce json
// @Param id path int true "Plan ID"
// @Param userId path int true "User ID"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/plans/{id}/grant/{userId} [post]
func (h *PlanHandler) Grant(w http.ResponseWriter, r *http.Request) {
	planID, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	u, err := h.entitlements.ApplyPlan(r.Context(), userID, planID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// Revoke removes a plan from a user
// @Summary Revoke plan
// @Tags Admin
// @Produce json
// @Param id path int true "Plan ID"
// @Param userId path int true "User ID"
// @Success 200 {object} dto.UserDTO "Updated user"
// @Router /admin/plans/{id}/revoke/{userId} [post]
func (h *PlanHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	planID, err := parseIDParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	u, err := h.entitlements.RevokePlan(r.Context(), userID, planID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

func (h *PlanHandler) decodePlanRequest(w http.ResponseWriter, r *http.Request) (*dto.PlanRequest, bool) {
	var req dto.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return nil, false
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return nil, false
	}
	return &req, true
}
