package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order"
	"ms-marketplace/internal/order/qr"
	"ms-marketplace/internal/utils"
	xerrors "ms-marketplace/internal/xpkg/errors"
)

type Handler struct {
	OrderService *order.OrderService
	QR           *qr.Generator
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, QR: qrGen, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	buyerID := auth.UserID(r.Context())
	buyerName := auth.DisplayName(r.Context())
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: buyer=%s seller=%s items=%d", buyerID, req.SellerID, len(req.Items)))

	created, err := h.OrderService.CreateOrder(buyerID, buyerName, req)
	if err != nil {
		h.writeError(w, "could not create order", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("order created", created))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	orderData, err := h.OrderService.GetOrder(orderID, actorID)
	if err != nil {
		h.writeError(w, "could not fetch order", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("order", orderData))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actorID := auth.UserID(r.Context())

	orders, err := h.OrderService.ListOrders(actorID)
	if err != nil {
		h.writeError(w, "could not list orders", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("orders", orders))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: order=%s target=%s", orderID, req.Status))

	updated, err := h.OrderService.UpdateStatus(orderID, actorID, req.Status)
	if err != nil {
		h.writeError(w, "could not update status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("status updated", updated))
}

func (h *Handler) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	var req models.ConfirmCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	updated, err := h.OrderService.ConfirmCompletion(orderID, actorID, req.ProofURL)
	if err != nil {
		h.writeError(w, "could not confirm completion", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("completion confirmed", updated))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	var req models.CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	cancelled, err := h.OrderService.CancelOrder(orderID, actorID, req.Reason)
	if err != nil {
		h.writeError(w, "could not cancel order", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("order cancelled", cancelled))
}

func (h *Handler) RateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	var req models.RateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	rated, err := h.OrderService.RateOrder(orderID, actorID, req.Stars, req.Comment)
	if err != nil {
		h.writeError(w, "could not rate order", err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("order rated", rated))
}

// PickupQR returns the encrypted pickup code for a ready order, as a PNG.
// Only the buyer gets it; the seller scans it at handover.
func (h *Handler) PickupQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	actorID := auth.UserID(r.Context())

	orderData, err := h.OrderService.GetOrder(orderID, actorID)
	if err != nil {
		h.writeError(w, "could not fetch order", err)
		return
	}
	if orderData.BuyerID != actorID {
		h.writeJSON(w, http.StatusForbidden, utils.ErrorResponse("forbidden", "only the buyer can fetch the pickup code"))
		return
	}
	if orderData.Status != models.StatusReady {
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("not ready", "pickup code is only available once the order is ready"))
		return
	}

	png, err := h.QR.GeneratePickupQR(qr.PickupClaims{
		OrderID:     orderData.OrderID,
		OrderNumber: orderData.OrderNumber,
		BuyerID:     orderData.BuyerID,
		IssuedAt:    orderData.ReadyAt,
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PickupQR: generation failed: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not generate pickup code", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// VerifyPickup checks a scanned pickup code against the order it claims to
// belong to. Only the seller of a ready order gets a positive answer; the
// handover confirmation itself stays a separate explicit call.
func (h *Handler) VerifyPickup(w http.ResponseWriter, r *http.Request) {
	actorID := auth.UserID(r.Context())

	var req models.VerifyPickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	claims, err := h.QR.DecodePickup(req.Code)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("VerifyPickup: rejected code from %s: %v", actorID, err))
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid pickup code", err.Error()))
		return
	}

	orderData, err := h.OrderService.GetOrder(claims.OrderID, actorID)
	if err != nil {
		h.writeError(w, "could not verify pickup code", err)
		return
	}
	if orderData.SellerID != actorID {
		h.writeJSON(w, http.StatusForbidden, utils.ErrorResponse("forbidden", "only the seller can redeem a pickup code"))
		return
	}
	if orderData.Status != models.StatusReady {
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("not ready", "order is not awaiting pickup"))
		return
	}
	if claims.BuyerID != orderData.BuyerID || claims.OrderNumber != orderData.OrderNumber {
		h.Logger.Warn("API", fmt.Sprintf("VerifyPickup: claims mismatch for order %s", claims.OrderID))
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("mismatch", "pickup code does not match this order"))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("pickup code verified", orderData))
}

// writeError maps the ledger's typed errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError

	var validationErr *xerrors.ValidationError
	var transitionErr *xerrors.InvalidTransitionError
	var stockErr *xerrors.InsufficientStockError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, xerrors.ErrReasonRequired):
		status = http.StatusBadRequest
	case errors.Is(err, xerrors.ErrOrderNotFound), errors.Is(err, xerrors.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, xerrors.ErrNotAParty):
		status = http.StatusForbidden
	case errors.As(err, &transitionErr),
		errors.Is(err, xerrors.ErrDuplicateConfirmation),
		errors.Is(err, xerrors.ErrAlreadyRated):
		status = http.StatusConflict
	case errors.As(err, &stockErr):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", message, err))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", message, err))
	}
	h.writeJSON(w, status, utils.ErrorResponse(message, err.Error()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}
