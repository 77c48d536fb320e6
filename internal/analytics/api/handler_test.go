package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-marketplace/internal/analytics"
	"ms-marketplace/internal/analytics/api"
	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.SellerStats)(nil),
	} {
		if err := bunDB.ResetModel(ctx, model); err != nil {
			t.Fatalf("failed to reset model: %v", err)
		}
	}

	stats := models.SellerStats{
		SellerID:    "seller-1",
		TotalSales:  120.5,
		TotalOrders: 3,
		RatingSum:   9,
		RatingCount: 2,
	}
	if _, err := bunDB.NewInsert().Model(&stats).Exec(ctx); err != nil {
		t.Fatalf("failed to seed stats: %v", err)
	}

	handler := api.NewHandler(analytics.NewService(bunDB), logger.NewLogger())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/analytics", func(r chi.Router) {
			handler.RegisterRoutes(r)
		})
	})
	return r
}

func TestSellerOverviewRoute(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/seller/overview", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "seller-1", "Boru"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool                     `json:"success"`
		Data    analytics.SellerOverview `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
	if resp.Data.SellerID != "seller-1" {
		t.Errorf("expected seller-1, got %s", resp.Data.SellerID)
	}
	if resp.Data.TotalSales != 120.5 {
		t.Errorf("expected total sales 120.5, got %v", resp.Data.TotalSales)
	}
	if resp.Data.AverageRating != 4.5 {
		t.Errorf("expected average rating 4.5, got %v", resp.Data.AverageRating)
	}
}
