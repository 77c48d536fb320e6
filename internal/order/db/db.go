package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
	xerrors "ms-marketplace/internal/xpkg/errors"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder inserts the order row and then its item snapshots. The
// datastore gives us no multi-statement transaction primitive here, so the
// writes are sequential, order row first.
func (d *DB) CreateOrder(order models.Order, items []models.OrderItem) error {
	ctx := context.Background()

	if _, err := d.Bun.NewInsert().Model(&order).Exec(ctx); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&items).Exec(ctx)
	return err
}

func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, xerrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrderItems(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id = ?", orderID).
		Order("item_id").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetOrdersByUser returns every order the user is a party to, newest first.
func (d *DB) GetOrdersByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus writes the status column plus the matching timestamp column.
func (d *DB) UpdateStatus(order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "confirmed_at", "ready_at").
		Where("order_id = ?", order.OrderID).
		Exec(context.Background())
	return err
}

// SetConfirmation stamps one role's confirmation flag, timestamp and proof
// reference. The other role's columns are never touched here, so concurrent
// buyer/seller confirmations write disjoint columns.
func (d *DB) SetConfirmation(orderID string, role models.Role, proofURL string, at time.Time) error {
	q := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Where("order_id = ?", orderID)

	switch role {
	case models.RoleBuyer:
		q = q.Set("buyer_confirmed = ?", true).
			Set("buyer_confirmed_at = ?", at).
			Set("buyer_proof_url = ?", proofURL)
	case models.RoleSeller:
		q = q.Set("seller_confirmed = ?", true).
			Set("seller_confirmed_at = ?", at).
			Set("seller_proof_url = ?", proofURL)
	default:
		return xerrors.ErrNotAParty
	}

	_, err := q.Exec(context.Background())
	return err
}

// GetConfirmationFlags re-reads both confirmation flags. Callers must use
// this after their own confirmation write, not a value cached before it.
func (d *DB) GetConfirmationFlags(orderID string) (buyer bool, seller bool, err error) {
	var order models.Order
	err = d.Bun.NewSelect().
		Model(&order).
		Column("buyer_confirmed", "seller_confirmed").
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, xerrors.ErrOrderNotFound
	}
	if err != nil {
		return false, false, err
	}
	return order.BuyerConfirmed, order.SellerConfirmed, nil
}

// CompleteOrder advances a dual-confirmed order to completed and marks the
// payment settled. The status guard keeps a terminal order terminal even if
// two confirmers race into the completion check.
func (d *DB) CompleteOrder(orderID string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.StatusCompleted).
		Set("completed_at = ?", at).
		Set("payment_settled = ?", true).
		Where("order_id = ?", orderID).
		Where("status NOT IN (?)", bun.In([]models.OrderStatus{models.StatusCompleted, models.StatusCancelled})).
		Exec(context.Background())
	return err
}

func (d *DB) CancelOrder(orderID, actor, reason string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.StatusCancelled).
		Set("cancel_reason = ?", reason).
		Set("cancelled_by = ?", actor).
		Set("cancelled_at = ?", at).
		Where("order_id = ?", orderID).
		Exec(context.Background())
	return err
}

func (d *DB) RateOrder(orderID string, stars int, comment string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("rating = ?", stars).
		Set("rating_comment = ?", comment).
		Set("rated_at = ?", at).
		Where("order_id = ?", orderID).
		Exec(context.Background())
	return err
}

// ---------------- NOTIFICATIONS ----------------

func (d *DB) CreateNotification(n models.Notification) error {
	_, err := d.Bun.NewInsert().Model(&n).Exec(context.Background())
	return err
}

// ---------------- SELLER STATS ----------------

// IncrementSellerStats bumps the seller's lifetime totals after a completed
// order. Upsert keeps first-sale sellers from needing a seed row.
func (d *DB) IncrementSellerStats(sellerID string, orderTotal float64) error {
	stats := models.SellerStats{
		SellerID:    sellerID,
		TotalSales:  orderTotal,
		TotalOrders: 1,
	}
	_, err := d.Bun.NewInsert().
		Model(&stats).
		On("CONFLICT (seller_id) DO UPDATE").
		Set("total_sales = seller_stats.total_sales + EXCLUDED.total_sales").
		Set("total_orders = seller_stats.total_orders + 1").
		Exec(context.Background())
	return err
}

func (d *DB) AddSellerRating(sellerID string, stars int) error {
	stats := models.SellerStats{
		SellerID:    sellerID,
		RatingSum:   stars,
		RatingCount: 1,
	}
	_, err := d.Bun.NewInsert().
		Model(&stats).
		On("CONFLICT (seller_id) DO UPDATE").
		Set("rating_sum = seller_stats.rating_sum + EXCLUDED.rating_sum").
		Set("rating_count = seller_stats.rating_count + 1").
		Exec(context.Background())
	return err
}

func (d *DB) GetSellerStats(sellerID string) (*models.SellerStats, error) {
	var stats models.SellerStats
	err := d.Bun.NewSelect().
		Model(&stats).
		Where("seller_id = ?", sellerID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		// No completed orders yet: zero-valued stats, not an error.
		return &models.SellerStats{SellerID: sellerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
