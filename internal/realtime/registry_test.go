package realtime_test

import (
	"sync"
	"testing"

	"ms-marketplace/internal/realtime"
)

func TestRegisterAndDeregister(t *testing.T) {
	reg := realtime.NewRegistry()

	conn1, first := reg.Register("user-1")
	if !first {
		t.Error("Expected first connection to flip presence")
	}
	conn2, first := reg.Register("user-1")
	if first {
		t.Error("Expected second connection not to flip presence")
	}

	if reg.ConnectionCount("user-1") != 2 {
		t.Errorf("Expected 2 connections, got %d", reg.ConnectionCount("user-1"))
	}
	if !reg.IsOnline("user-1") {
		t.Error("Expected user online with two connections")
	}

	// Dropping one connection keeps the user online.
	if offline := reg.Deregister(conn1); offline {
		t.Error("Expected user to stay online after dropping one of two connections")
	}
	if !reg.IsOnline("user-1") {
		t.Error("Expected user still online")
	}

	// Dropping the last connection takes them offline.
	if offline := reg.Deregister(conn2); !offline {
		t.Error("Expected offline flip on last connection")
	}
	if reg.IsOnline("user-1") {
		t.Error("Expected user offline with empty connection set")
	}
}

func TestDeregisterUnknownConnection(t *testing.T) {
	reg := realtime.NewRegistry()

	conn, _ := reg.Register("user-1")
	reg.Deregister(conn)

	// Deregistering twice must not report a second offline flip.
	if offline := reg.Deregister(conn); offline {
		t.Error("Expected no offline flip for an already-removed connection")
	}
}

func TestFind(t *testing.T) {
	reg := realtime.NewRegistry()

	conn, _ := reg.Register("user-1")

	found, ok := reg.Find("user-1", conn.ID)
	if !ok || found.ID != conn.ID {
		t.Error("Expected to find registered connection by id")
	}

	if _, ok := reg.Find("user-1", "bogus"); ok {
		t.Error("Expected lookup miss for unknown connection id")
	}
	if _, ok := reg.Find("user-2", conn.ID); ok {
		t.Error("Expected lookup miss for wrong user")
	}
}

func TestListOnline(t *testing.T) {
	reg := realtime.NewRegistry()

	reg.Register("user-1")
	reg.Register("user-2")
	conn, _ := reg.Register("user-3")
	reg.Deregister(conn)

	online := reg.ListOnline()
	if len(online) != 2 {
		t.Errorf("Expected 2 online users, got %d", len(online))
	}
	for _, u := range online {
		if u == "user-3" {
			t.Error("Expected user-3 to be offline")
		}
	}
}

func TestConcurrentRegisterDeregister(t *testing.T) {
	reg := realtime.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _ := reg.Register("user-1")
			reg.Deregister(conn)
		}()
	}
	wg.Wait()

	if reg.IsOnline("user-1") {
		t.Errorf("Expected empty connection set after churn, got %d", reg.ConnectionCount("user-1"))
	}
}
