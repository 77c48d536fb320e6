package realtime

import "sync"

// RoomRouter tracks which connections are watching each order's
// conversation. Membership is purely broadcast scoping: the caller must have
// verified that the joining identity is a party to the order before
// admitting the join, because membership grants no authorization by itself.
type RoomRouter struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{rooms: make(map[string]map[string]*Connection)}
}

func (r *RoomRouter) Join(orderID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[orderID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[orderID] = room
	}
	room[conn.ID] = conn
}

func (r *RoomRouter) Leave(orderID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(orderID, conn.ID)
}

// LeaveAll removes the connection from every room it was part of; used on
// disconnect. Rooms that become empty are discarded.
func (r *RoomRouter) LeaveAll(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for orderID := range r.rooms {
		r.removeLocked(orderID, conn.ID)
	}
}

func (r *RoomRouter) removeLocked(orderID, connID string) {
	room := r.rooms[orderID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, orderID)
	}
}

// Members snapshots the connections currently joined to the order's room.
func (r *RoomRouter) Members(orderID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[orderID]
	out := make([]*Connection, 0, len(room))
	for _, conn := range room {
		out = append(out, conn)
	}
	return out
}

func (r *RoomRouter) MemberCount(orderID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[orderID])
}
