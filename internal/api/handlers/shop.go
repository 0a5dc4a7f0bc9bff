package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hostdeck/hostdeck/internal/api/dto"
	"github.com/hostdeck/hostdeck/internal/api/middleware"
	"github.com/hostdeck/hostdeck/internal/domain/shop"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/utils"
	"github.com/hostdeck/hostdeck/internal/pkg/validator"
)

// ShopHandler handles shop requests
type ShopHandler struct {
	shop      shop.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shopService shop.Service, log *logger.Logger, val *validator.Validator) *ShopHandler {
	return &ShopHandler{
		shop:      shopService,
		logger:    log,
		validator: val,
	}
}

// Table returns the active price table
// @Summary Shop price table
// @Tags Shop
// @Produce json
// @Success 200 {object} shop.PriceTable "Price table"
// @Router /shop [get]
func (h *ShopHandler) Table(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.shop.Table())
}

// Purchase buys resource units for the authenticated user
// @Summary Purchase resources
// @Tags Shop
// @Accept json
// @Produce json
// @Param request body dto.PurchaseRequest true "Purchase"
// @Success 200 {object} shop.PurchaseResult "Committed purchase"
// @Failure 400 {object} utils.ErrorResponse "Rejected purchase"
// @Router /shop/purchase [post]
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var req dto.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	result, err := h.shop.Purchase(r.Context(), userID, req.Resource, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}
