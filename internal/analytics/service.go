package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

// Service answers the seller dashboard queries: lifetime totals, rating,
// and status breakdown of their orders.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// SellerOverview is the aggregate view one seller sees of themselves.
type SellerOverview struct {
	SellerID      string         `json:"seller_id"`
	TotalSales    float64        `json:"total_sales"`
	TotalOrders   int            `json:"total_orders"`
	AverageRating float64        `json:"average_rating"`
	RatingCount   int            `json:"rating_count"`
	StatusCounts  map[string]int `json:"status_counts"`
}

func (s *Service) GetSellerOverview(sellerID string) (*SellerOverview, error) {
	ctx := context.Background()

	var stats models.SellerStats
	err := s.db.NewSelect().
		Model(&stats).
		Where("seller_id = ?", sellerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		// No completed orders yet: zero stats, carry on to status counts.
		stats = models.SellerStats{SellerID: sellerID}
	}

	type statusRow struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	var rows []statusRow
	err = s.db.NewSelect().
		Model((*models.Order)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS count").
		Where("seller_id = ?", sellerID).
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return &SellerOverview{
		SellerID:      sellerID,
		TotalSales:    stats.TotalSales,
		TotalOrders:   stats.TotalOrders,
		AverageRating: stats.AverageRating(),
		RatingCount:   stats.RatingCount,
		StatusCounts:  counts,
	}, nil
}
