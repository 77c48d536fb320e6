package realtime

import (
	"fmt"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

// Broadcaster fans typed events out to a user's connections or to an
// order's room. Delivery is best-effort: no acknowledgment, no retry, no
// queuing. When nobody is connected the event is simply dropped and only the
// durable notification row carries the information forward.
type Broadcaster struct {
	Registry *Registry
	Rooms    *RoomRouter
	Logger   *logger.Logger
}

func NewBroadcaster(log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		Registry: NewRegistry(),
		Rooms:    NewRoomRouter(),
		Logger:   log,
	}
}

// Connect registers a new connection for the user. The user's first
// connection flips presence to online and announces it to everyone else.
func (b *Broadcaster) Connect(userID string) *Connection {
	conn, cameOnline := b.Registry.Register(userID)
	b.Logger.LogRealtime("CONNECT", fmt.Sprintf("user %s connection %s (%d active)", userID, conn.ID, b.Registry.ConnectionCount(userID)))

	if cameOnline {
		b.broadcastPresence(userID, true)
	}
	return conn
}

// Disconnect removes the connection from every room and from the registry.
// Only the user's last connection going away produces an offline broadcast.
func (b *Broadcaster) Disconnect(conn *Connection) {
	b.Rooms.LeaveAll(conn)
	wentOffline := b.Registry.Deregister(conn)
	b.Logger.LogRealtime("DISCONNECT", fmt.Sprintf("user %s connection %s", conn.UserID, conn.ID))

	if wentOffline {
		b.broadcastPresence(conn.UserID, false)
	}
}

func (b *Broadcaster) JoinRoom(orderID string, conn *Connection) {
	b.Rooms.Join(orderID, conn)
	b.Logger.LogRealtime("ROOM_JOIN", fmt.Sprintf("connection %s joined order %s", conn.ID, orderID))
}

func (b *Broadcaster) LeaveRoom(orderID string, conn *Connection) {
	b.Rooms.Leave(orderID, conn)
	b.Logger.LogRealtime("ROOM_LEAVE", fmt.Sprintf("connection %s left order %s", conn.ID, orderID))
}

// NotifyUser delivers the event to every connection the user currently
// holds and reports whether at least one delivery was attempted.
func (b *Broadcaster) NotifyUser(userID string, event models.RealtimeEvent) bool {
	conns := b.Registry.ConnectionsFor(userID)
	if len(conns) == 0 {
		b.Logger.Debug("REALTIME", fmt.Sprintf("user %s offline, %s event dropped", userID, event.Kind))
		return false
	}
	for _, conn := range conns {
		b.deliver(conn, event)
	}
	return true
}

// BroadcastToRoom delivers the event to every connection currently joined
// to the order's room.
func (b *Broadcaster) BroadcastToRoom(orderID string, event models.RealtimeEvent) {
	for _, conn := range b.Rooms.Members(orderID) {
		b.deliver(conn, event)
	}
}

func (b *Broadcaster) broadcastPresence(userID string, online bool) {
	event := models.NewPresenceEvent(userID, online)
	for _, conn := range b.Registry.AllConnections() {
		if conn.UserID == userID {
			continue
		}
		b.deliver(conn, event)
	}
	b.Logger.LogRealtime("PRESENCE", fmt.Sprintf("user %s -> %s", userID, event.Kind))
}

// deliver pushes the event onto the connection's channel without blocking.
// The kind switch is exhaustive over the closed event set; anything else is
// a programming error and gets dropped loudly.
func (b *Broadcaster) deliver(conn *Connection, event models.RealtimeEvent) {
	switch event.Kind {
	case models.EventOrderNew, models.EventOrderUpdated, models.EventOrderCancelled,
		models.EventMessageReceived, models.EventMessageReadReceipt,
		models.EventNotification,
		models.EventPresenceOnline, models.EventPresenceOffline,
		models.EventTypingStatus:
	default:
		b.Logger.Error("REALTIME", fmt.Sprintf("unknown event kind %q, not delivering", event.Kind))
		return
	}

	select {
	case conn.Events <- event:
	default:
		// Buffer full: slow client, skip rather than stall the emitter.
		b.Logger.Warn("REALTIME", fmt.Sprintf("connection %s buffer full, %s event dropped", conn.ID, event.Kind))
	}
}
