package models

import "time"

// EventKind is the closed set of real-time event names pushed to clients.
// The broadcaster dispatches on it exhaustively; anything outside this set
// is a programming error, not client input.
type EventKind string

const (
	EventOrderNew           EventKind = "order:new"
	EventOrderUpdated       EventKind = "order:updated"
	EventOrderCancelled     EventKind = "order:cancelled"
	EventMessageReceived    EventKind = "message:received"
	EventMessageReadReceipt EventKind = "message_read_receipt"
	EventNotification       EventKind = "notification"
	EventPresenceOnline     EventKind = "presence:online"
	EventPresenceOffline    EventKind = "presence:offline"
	EventTypingStatus       EventKind = "typing:status"
)

// RealtimeEvent is one typed event plus its payload, ready for SSE framing.
type RealtimeEvent struct {
	Kind    EventKind   `json:"kind"`
	Payload interface{} `json:"payload"`
}

type OrderNewPayload struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerName   string    `json:"buyer_name"`
	TotalAmount float64   `json:"total_amount"`
	ItemsCount  int       `json:"items_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderUpdatedPayload struct {
	OrderID         string      `json:"order_id"`
	Status          OrderStatus `json:"status"`
	BuyerConfirmed  bool        `json:"buyer_confirmed"`
	SellerConfirmed bool        `json:"seller_confirmed"`
	DeliveryOption  string      `json:"delivery_option"`
	TotalAmount     float64     `json:"total_amount"`
}

type OrderCancelledPayload struct {
	OrderID     string `json:"order_id"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

type MessageReceivedPayload struct {
	OrderID   string    `json:"order_id"`
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

type MessageReadReceiptPayload struct {
	OrderID   string    `json:"order_id"`
	MessageID string    `json:"message_id"`
	ReaderID  string    `json:"reader_id"`
	ReadAt    time.Time `json:"read_at"`
}

type NotificationPayload struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type TypingStatusPayload struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

func NewOrderNewEvent(o OrderWithItems) RealtimeEvent {
	return RealtimeEvent{Kind: EventOrderNew, Payload: OrderNewPayload{
		OrderID:     o.OrderID,
		OrderNumber: o.OrderNumber,
		BuyerName:   o.BuyerName,
		TotalAmount: o.Total,
		ItemsCount:  len(o.Items),
		CreatedAt:   o.CreatedAt,
	}}
}

func NewOrderUpdatedEvent(o Order) RealtimeEvent {
	return RealtimeEvent{Kind: EventOrderUpdated, Payload: OrderUpdatedPayload{
		OrderID:         o.OrderID,
		Status:          o.Status,
		BuyerConfirmed:  o.BuyerConfirmed,
		SellerConfirmed: o.SellerConfirmed,
		DeliveryOption:  o.DeliveryOption,
		TotalAmount:     o.Total,
	}}
}

func NewOrderCancelledEvent(o Order) RealtimeEvent {
	return RealtimeEvent{Kind: EventOrderCancelled, Payload: OrderCancelledPayload{
		OrderID:     o.OrderID,
		Reason:      o.CancelReason,
		CancelledBy: o.CancelledBy,
	}}
}

func NewNotificationEvent(n Notification) RealtimeEvent {
	return RealtimeEvent{Kind: EventNotification, Payload: NotificationPayload{
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ReferenceID: n.ReferenceID,
	}}
}

func NewPresenceEvent(userID string, online bool) RealtimeEvent {
	kind := EventPresenceOnline
	if !online {
		kind = EventPresenceOffline
	}
	return RealtimeEvent{Kind: kind, Payload: PresencePayload{UserID: userID}}
}

func NewTypingStatusEvent(orderID, userID string, isTyping bool) RealtimeEvent {
	return RealtimeEvent{Kind: EventTypingStatus, Payload: TypingStatusPayload{
		OrderID:  orderID,
		UserID:   userID,
		IsTyping: isTyping,
	}}
}
