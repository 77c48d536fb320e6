package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/analytics"
	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/seller/overview", h.GetSellerOverview)
}

// GetSellerOverview returns the caller's own aggregates. Sellers see only
// themselves here; admin reporting lives elsewhere.
func (h *Handler) GetSellerOverview(w http.ResponseWriter, r *http.Request) {
	sellerID := auth.UserID(r.Context())

	overview, err := h.Service.GetSellerOverview(sellerID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("seller overview failed for %s: %v", sellerID, err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(utils.ErrorResponse("could not load overview", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("seller overview", overview))
}
