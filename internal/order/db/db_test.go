package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order/db"
	xerrors "ms-marketplace/internal/xpkg/errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Notification)(nil),
		(*models.SellerStats)(nil),
	} {
		if err := bunDB.ResetModel(ctx, model); err != nil {
			t.Fatalf("Failed to reset model: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}
}

func sampleOrder(orderID string) models.Order {
	return models.Order{
		OrderID:     orderID,
		OrderNumber: "ORD-20260831-0001",
		BuyerID:     "buyer-1",
		BuyerName:   "Amara",
		SellerID:    "seller-1",
		Status:      models.StatusPending,
		Subtotal:    14.0,
		Total:       14.0,
		CreatedAt:   time.Now().UTC().Round(time.Second),
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	items := []models.OrderItem{
		{ItemID: "item-1", OrderID: "order-1", ProductID: "prod-1", ProductName: "Tomatoes", UnitPrice: 3.5, Quantity: 4, LineTotal: 14.0},
	}

	if err := d.CreateOrder(order, items); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	retrieved, err := d.GetOrderByID("order-1")
	if err != nil {
		t.Fatalf("Failed to retrieve order: %v", err)
	}
	if retrieved.OrderNumber != order.OrderNumber {
		t.Errorf("Expected order number %s, got %s", order.OrderNumber, retrieved.OrderNumber)
	}
	if retrieved.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", retrieved.Status)
	}
	if retrieved.Total != 14.0 {
		t.Errorf("Expected total 14.0, got %f", retrieved.Total)
	}

	gotItems, err := d.GetOrderItems("order-1")
	if err != nil {
		t.Fatalf("Failed to retrieve items: %v", err)
	}
	if len(gotItems) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(gotItems))
	}
	if gotItems[0].ProductName != "Tomatoes" {
		t.Errorf("Expected product name Tomatoes, got %s", gotItems[0].ProductName)
	}
}

func TestGetOrderByIDNotFound(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.GetOrderByID("missing")
	if err != xerrors.ErrOrderNotFound {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}

func TestGetOrdersByUser(t *testing.T) {
	d := setupTestDB(t)

	asBuyer := sampleOrder("order-1")
	asSeller := sampleOrder("order-2")
	asSeller.BuyerID = "someone-else"
	asSeller.SellerID = "buyer-1" // our user selling this time
	unrelated := sampleOrder("order-3")
	unrelated.BuyerID = "other-buyer"
	unrelated.SellerID = "other-seller"

	for _, o := range []models.Order{asBuyer, asSeller, unrelated} {
		if err := d.CreateOrder(o, nil); err != nil {
			t.Fatalf("Failed to create order %s: %v", o.OrderID, err)
		}
	}

	orders, err := d.GetOrdersByUser("buyer-1")
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("Expected 2 orders for buyer-1, got %d", len(orders))
	}
}

func TestConfirmationFlow(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	order.Status = models.StatusReady
	if err := d.CreateOrder(order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	now := time.Now().UTC().Round(time.Second)

	// Buyer confirms first.
	if err := d.SetConfirmation("order-1", models.RoleBuyer, "buyer-proof.jpg", now); err != nil {
		t.Fatalf("Failed to set buyer confirmation: %v", err)
	}
	buyer, seller, err := d.GetConfirmationFlags("order-1")
	if err != nil {
		t.Fatalf("Failed to read flags: %v", err)
	}
	if !buyer || seller {
		t.Errorf("Expected buyer=true seller=false, got buyer=%v seller=%v", buyer, seller)
	}

	// Seller confirms; the buyer's columns must be untouched.
	if err := d.SetConfirmation("order-1", models.RoleSeller, "seller-proof.jpg", now); err != nil {
		t.Fatalf("Failed to set seller confirmation: %v", err)
	}
	buyer, seller, err = d.GetConfirmationFlags("order-1")
	if err != nil {
		t.Fatalf("Failed to read flags: %v", err)
	}
	if !buyer || !seller {
		t.Errorf("Expected both flags set, got buyer=%v seller=%v", buyer, seller)
	}

	retrieved, _ := d.GetOrderByID("order-1")
	if retrieved.BuyerProofURL != "buyer-proof.jpg" {
		t.Errorf("Expected buyer proof preserved, got %q", retrieved.BuyerProofURL)
	}
	if retrieved.SellerProofURL != "seller-proof.jpg" {
		t.Errorf("Expected seller proof set, got %q", retrieved.SellerProofURL)
	}
}

func TestSetConfirmationUnknownRole(t *testing.T) {
	d := setupTestDB(t)

	err := d.SetConfirmation("order-1", models.Role("auditor"), "", time.Now())
	if err != xerrors.ErrNotAParty {
		t.Errorf("Expected ErrNotAParty, got %v", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	order.Status = models.StatusReady
	if err := d.CreateOrder(order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	now := time.Now().UTC().Round(time.Second)
	if err := d.CompleteOrder("order-1", now); err != nil {
		t.Fatalf("Failed to complete order: %v", err)
	}

	retrieved, _ := d.GetOrderByID("order-1")
	if retrieved.Status != models.StatusCompleted {
		t.Errorf("Expected completed, got %s", retrieved.Status)
	}
	if !retrieved.PaymentSettled {
		t.Error("Expected payment settled on completion")
	}
	if retrieved.CompletedAt.IsZero() {
		t.Error("Expected completed_at to be set")
	}
}

func TestCompleteOrderLeavesTerminalAlone(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	order.Status = models.StatusCancelled
	if err := d.CreateOrder(order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	if err := d.CompleteOrder("order-1", time.Now().UTC()); err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}

	retrieved, _ := d.GetOrderByID("order-1")
	if retrieved.Status != models.StatusCancelled {
		t.Errorf("Expected cancelled order to stay cancelled, got %s", retrieved.Status)
	}
}

func TestCancelOrder(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	if err := d.CreateOrder(order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	now := time.Now().UTC().Round(time.Second)
	if err := d.CancelOrder("order-1", "buyer", "changed my mind", now); err != nil {
		t.Fatalf("Failed to cancel order: %v", err)
	}

	retrieved, _ := d.GetOrderByID("order-1")
	if retrieved.Status != models.StatusCancelled {
		t.Errorf("Expected cancelled, got %s", retrieved.Status)
	}
	if retrieved.CancelReason != "changed my mind" {
		t.Errorf("Expected cancel reason recorded, got %q", retrieved.CancelReason)
	}
	if retrieved.CancelledBy != "buyer" {
		t.Errorf("Expected cancelled_by buyer, got %q", retrieved.CancelledBy)
	}
}

func TestRateOrder(t *testing.T) {
	d := setupTestDB(t)

	order := sampleOrder("order-1")
	order.Status = models.StatusCompleted
	if err := d.CreateOrder(order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	now := time.Now().UTC().Round(time.Second)
	if err := d.RateOrder("order-1", 4, "fresh produce", now); err != nil {
		t.Fatalf("Failed to rate order: %v", err)
	}

	retrieved, _ := d.GetOrderByID("order-1")
	if retrieved.Rating != 4 {
		t.Errorf("Expected rating 4, got %d", retrieved.Rating)
	}
	if retrieved.RatingComment != "fresh produce" {
		t.Errorf("Expected rating comment, got %q", retrieved.RatingComment)
	}
}

func TestSellerStatsUpserts(t *testing.T) {
	d := setupTestDB(t)

	if err := d.IncrementSellerStats("seller-1", 10.0); err != nil {
		t.Fatalf("Failed first increment: %v", err)
	}
	if err := d.IncrementSellerStats("seller-1", 5.5); err != nil {
		t.Fatalf("Failed second increment: %v", err)
	}
	if err := d.AddSellerRating("seller-1", 4); err != nil {
		t.Fatalf("Failed first rating: %v", err)
	}
	if err := d.AddSellerRating("seller-1", 5); err != nil {
		t.Fatalf("Failed second rating: %v", err)
	}

	stats, err := d.GetSellerStats("seller-1")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.TotalSales != 15.5 {
		t.Errorf("Expected total sales 15.5, got %f", stats.TotalSales)
	}
	if stats.TotalOrders != 2 {
		t.Errorf("Expected 2 orders, got %d", stats.TotalOrders)
	}
	if stats.AverageRating() != 4.5 {
		t.Errorf("Expected average rating 4.5, got %f", stats.AverageRating())
	}
}

func TestGetSellerStatsUnknownSeller(t *testing.T) {
	d := setupTestDB(t)

	stats, err := d.GetSellerStats("never-sold")
	if err != nil {
		t.Fatalf("Expected zero stats for unknown seller, got error: %v", err)
	}
	if stats.TotalOrders != 0 || stats.RatingCount != 0 {
		t.Errorf("Expected zero-valued stats, got %+v", stats)
	}
}

func TestCreateNotification(t *testing.T) {
	d := setupTestDB(t)

	n := models.Notification{
		NotificationID: "notif-1",
		UserID:         "seller-1",
		Title:          "New order received",
		Message:        "Amara placed order ORD-20260831-0001",
		Type:           "order_new",
		ReferenceID:    "order-1",
		CreatedAt:      time.Now().UTC().Round(time.Second),
	}
	if err := d.CreateNotification(n); err != nil {
		t.Fatalf("Failed to create notification: %v", err)
	}
}
