package notify_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"ms-marketplace/internal/models"
	"ms-marketplace/internal/notify"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupStore(t *testing.T) *notify.Store {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if err := bunDB.ResetModel(context.Background(), (*models.Notification)(nil)); err != nil {
		t.Fatalf("Failed to reset notification model: %v", err)
	}

	return notify.NewStore(bunDB)
}

func seedNotifications(t *testing.T, store *notify.Store, userID string, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		n := models.Notification{
			NotificationID: fmt.Sprintf("notif-%s-%d", userID, i),
			UserID:         userID,
			Title:          "Order update",
			Type:           "order_status",
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if _, err := store.Bun.NewInsert().Model(&n).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to seed notification: %v", err)
		}
	}
}

func TestListByUser(t *testing.T) {
	store := setupStore(t)
	seedNotifications(t, store, "buyer-1", 3)
	seedNotifications(t, store, "seller-1", 2)

	list, err := store.ListByUser("buyer-1", false)
	if err != nil {
		t.Fatalf("Failed to list notifications: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 notifications for buyer-1, got %d", len(list))
	}
	for _, n := range list {
		if n.UserID != "buyer-1" {
			t.Errorf("Expected only buyer-1 rows, got one for %s", n.UserID)
		}
	}
}

func TestMarkReadAndUnreadFilter(t *testing.T) {
	store := setupStore(t)
	seedNotifications(t, store, "buyer-1", 2)

	if err := store.MarkRead("buyer-1", "notif-buyer-1-0"); err != nil {
		t.Fatalf("Failed to mark read: %v", err)
	}

	unread, err := store.ListByUser("buyer-1", true)
	if err != nil {
		t.Fatalf("Failed to list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("Expected 1 unread notification, got %d", len(unread))
	}

	count, err := store.UnreadCount("buyer-1")
	if err != nil {
		t.Fatalf("Failed to count unread: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected unread count 1, got %d", count)
	}
}

func TestMarkReadScopedToUser(t *testing.T) {
	store := setupStore(t)
	seedNotifications(t, store, "buyer-1", 1)

	// Another user cannot flip someone else's notification.
	if err := store.MarkRead("intruder", "notif-buyer-1-0"); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}

	count, _ := store.UnreadCount("buyer-1")
	if count != 1 {
		t.Errorf("Expected notification to stay unread, got count %d", count)
	}
}

func TestMarkAllRead(t *testing.T) {
	store := setupStore(t)
	seedNotifications(t, store, "buyer-1", 4)
	seedNotifications(t, store, "seller-1", 1)

	if err := store.MarkAllRead("buyer-1"); err != nil {
		t.Fatalf("Failed to mark all read: %v", err)
	}

	count, _ := store.UnreadCount("buyer-1")
	if count != 0 {
		t.Errorf("Expected 0 unread after MarkAllRead, got %d", count)
	}
	otherCount, _ := store.UnreadCount("seller-1")
	if otherCount != 1 {
		t.Errorf("Expected seller-1 unread untouched, got %d", otherCount)
	}
}
