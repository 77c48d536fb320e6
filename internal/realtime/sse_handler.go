package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	xerrors "ms-marketplace/internal/xpkg/errors"
)

// OrderVerifier checks that a user is actually the buyer or seller of an
// order before a room join is admitted. Room membership itself grants no
// authorization.
type OrderVerifier interface {
	VerifyParty(orderID, userID string) error
}

// SSEHandler exposes the real-time gateway over Server-Sent Events: one
// stream endpoint per connection plus join/leave/typing endpoints that
// reference the stream's connection id.
type SSEHandler struct {
	Logger *logger.Logger
	Hub    *Broadcaster
	Orders OrderVerifier
}

func NewSSEHandler(log *logger.Logger, hub *Broadcaster, orders OrderVerifier) *SSEHandler {
	return &SSEHandler{Logger: log, Hub: hub, Orders: orders}
}

// HandleStream keeps one SSE connection open for the authenticated user,
// registering it for presence and event fan-out until the client goes away.
func (h *SSEHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	conn := h.Hub.Connect(userID)
	defer h.Hub.Disconnect(conn)

	// The client needs the connection id to join rooms later.
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"connection_id\":\"%s\"}\n\n", conn.ID)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case event := <-conn.Events:
			data, err := json.Marshal(event.Payload)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize %s event: %v", event.Kind, err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("client disconnected: user %s connection %s", userID, conn.ID))
			return
		}
	}
}

// HandleJoinRoom admits one of the caller's connections into an order's
// room, after verifying the caller is a party to that order.
func (h *SSEHandler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	conn, ok := h.connFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.Orders.VerifyParty(orderID, conn.UserID); err != nil {
		h.writeVerifyError(w, orderID, conn.UserID, err)
		return
	}

	h.Hub.JoinRoom(orderID, conn)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SSEHandler) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	conn, ok := h.connFromRequest(w, r)
	if !ok {
		return
	}

	h.Hub.LeaveRoom(orderID, conn)
	w.WriteHeader(http.StatusNoContent)
}

// HandleTyping relays a typing indicator to the order's room.
func (h *SSEHandler) HandleTyping(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.Orders.VerifyParty(orderID, userID); err != nil {
		h.writeVerifyError(w, orderID, userID, err)
		return
	}

	var req struct {
		IsTyping bool `json:"is_typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.Hub.BroadcastToRoom(orderID, models.NewTypingStatusEvent(orderID, userID, req.IsTyping))
	w.WriteHeader(http.StatusNoContent)
}

// HandleOnlineUsers lists users with at least one active connection.
func (h *SSEHandler) HandleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	online := h.Hub.Registry.ListOnline()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"online": online})
}

func (h *SSEHandler) connFromRequest(w http.ResponseWriter, r *http.Request) (*Connection, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return nil, false
	}

	connID := r.URL.Query().Get("connection_id")
	if connID == "" {
		http.Error(w, "connection_id is required", http.StatusBadRequest)
		return nil, false
	}

	conn, ok := h.Hub.Registry.Find(userID, connID)
	if !ok {
		http.Error(w, "no such connection", http.StatusNotFound)
		return nil, false
	}
	return conn, true
}

func (h *SSEHandler) writeVerifyError(w http.ResponseWriter, orderID, userID string, err error) {
	if errors.Is(err, xerrors.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	h.Logger.Warn("SSE", fmt.Sprintf("user %s denied for order %s: %v", userID, orderID, err))
	http.Error(w, "not a party to this order", http.StatusForbidden)
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
