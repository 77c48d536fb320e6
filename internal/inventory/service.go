package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	xerrors "ms-marketplace/internal/xpkg/errors"
)

// Service adjusts per-product stock counters for order items. Items are
// processed one at a time, not inside one multi-row transaction: a failure
// partway through leaves earlier items already adjusted. The ledger logs
// that as a PartialAdjustmentWarning instead of failing the order.
type Service struct {
	Bun    *bun.DB
	Logger *logger.Logger
}

func NewService(bunDB *bun.DB, log *logger.Logger) *Service {
	return &Service{Bun: bunDB, Logger: log}
}

func (s *Service) GetProduct(productID string) (*models.Product, error) {
	var product models.Product
	err := s.Bun.NewSelect().
		Model(&product).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, xerrors.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CheckAvailability re-checks stock at commit time. The cart-time check
// happened earlier and stock may have moved since, so a fresh read decides
// whether the order gets persisted at all.
func (s *Service) CheckAvailability(items []models.OrderItem) error {
	for _, item := range items {
		product, err := s.GetProduct(item.ProductID)
		if err != nil {
			return err
		}
		if product.AvailableQuantity < item.Quantity {
			return &xerrors.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: product.AvailableQuantity,
			}
		}
	}
	return nil
}

// Reserve decrements stock and bumps the running order count per item. The
// quantity guard in the WHERE clause keeps counters from going negative when
// stock moved between the availability check and this write; such items are
// reported back as a PartialAdjustmentWarning, never as a fatal error.
func (s *Service) Reserve(orderID string, items []models.OrderItem) error {
	ctx := context.Background()
	var failed []string

	for _, item := range items {
		res, err := s.Bun.NewUpdate().
			Model((*models.Product)(nil)).
			Set("available_quantity = available_quantity - ?", item.Quantity).
			Set("orders_count = orders_count + 1").
			Where("product_id = ?", item.ProductID).
			Where("available_quantity >= ?", item.Quantity).
			Exec(ctx)
		if err != nil {
			s.Logger.Error("INVENTORY", fmt.Sprintf("stock decrement failed for product %s: %v", item.ProductID, err))
			failed = append(failed, item.ProductID)
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			s.Logger.Warn("INVENTORY", fmt.Sprintf("stock moved under product %s, decrement skipped", item.ProductID))
			failed = append(failed, item.ProductID)
		}
	}

	if len(failed) > 0 {
		return &xerrors.PartialAdjustmentWarning{OrderID: orderID, Products: failed}
	}
	return nil
}

// Release restores each item's exact ordered quantity on cancellation. The
// order count is floored at zero.
func (s *Service) Release(orderID string, items []models.OrderItem) error {
	ctx := context.Background()
	var failed []string

	for _, item := range items {
		_, err := s.Bun.NewUpdate().
			Model((*models.Product)(nil)).
			Set("available_quantity = available_quantity + ?", item.Quantity).
			Set("orders_count = CASE WHEN orders_count > 0 THEN orders_count - 1 ELSE 0 END").
			Where("product_id = ?", item.ProductID).
			Exec(ctx)
		if err != nil {
			s.Logger.Error("INVENTORY", fmt.Sprintf("stock restore failed for product %s: %v", item.ProductID, err))
			failed = append(failed, item.ProductID)
		}
	}

	if len(failed) > 0 {
		return &xerrors.PartialAdjustmentWarning{OrderID: orderID, Products: failed}
	}
	return nil
}
