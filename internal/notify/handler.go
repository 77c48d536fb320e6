package notify

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/utils"
)

type Handler struct {
	Store  *Store
	Logger *logger.Logger
}

func NewHandler(store *Store, log *logger.Logger) *Handler {
	return &Handler{Store: store, Logger: log}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.Store.ListByUser(userID, unreadOnly)
	if err != nil {
		h.Logger.Error("NOTIFY", fmt.Sprintf("list failed for user %s: %v", userID, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not list notifications", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("notifications", notifications))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	notificationID := chi.URLParam(r, "notificationId")

	if err := h.Store.MarkRead(userID, notificationID); err != nil {
		h.Logger.Error("NOTIFY", fmt.Sprintf("mark read failed for %s: %v", notificationID, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not mark notification read", err.Error()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := h.Store.MarkAllRead(userID); err != nil {
		h.Logger.Error("NOTIFY", fmt.Sprintf("mark all read failed for user %s: %v", userID, err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not mark notifications read", err.Error()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
