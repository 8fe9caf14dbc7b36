package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
)

// DashboardStats is the read-only aggregate shown on the admin dashboard.
// Recomputed per request; nothing here is cached.
type DashboardStats struct {
	OrdersByStatus   map[domain.OrderStatus]int `json:"orders_by_status"`
	TotalOrders      int                        `json:"total_orders"`
	TotalRevenue     int64                      `json:"total_revenue"`
	TotalProducts    int                        `json:"total_products"`
	ActiveProducts   int                        `json:"active_products"`
	OutOfStock       int                        `json:"out_of_stock"`
	TotalUsers       int                        `json:"total_users"`
	ActiveUsers      int                        `json:"active_users"`
	RecentOrders     []*domain.Order            `json:"recent_orders"`
	LowStockProducts []*domain.Product          `json:"low_stock_products"`
}

// StatsRepository aggregates over orders, products and users for the admin
// dashboard.
type StatsRepository interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new instance of StatsRepository
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

const lowStockThreshold = 5

// Dashboard computes the full dashboard aggregate. Revenue is the sum of
// final amounts over paid orders; delivery state does not affect it.
func (r *statsRepository) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[domain.OrderStatus]int),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		stats.OrdersByStatus[status] = count
		stats.TotalOrders += count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(final_amount), 0)
		FROM orders
		WHERE payment_status = $1
	`, domain.PaymentStatusPaid).Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE is_active AND stock = 0)
		FROM products
	`).Scan(&stats.TotalProducts, &stats.ActiveProducts, &stats.OutOfStock)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM users
	`).Scan(&stats.TotalUsers, &stats.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	recentQuery := fmt.Sprintf(`
		SELECT %s FROM orders
		ORDER BY created_at DESC
		LIMIT 5
	`, orderColumns)

	orderRows, err := r.db.QueryContext(ctx, recentQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	defer orderRows.Close()

	stats.RecentOrders = []*domain.Order{}
	for orderRows.Next() {
		order, err := scanOrder(orderRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent order: %w", err)
		}
		stats.RecentOrders = append(stats.RecentOrders, order)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent orders: %w", err)
	}

	lowStockQuery := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE is_active = TRUE AND stock <= $1
		ORDER BY stock ASC, name
		LIMIT 10
	`, productColumns)

	productRows, err := r.db.QueryContext(ctx, lowStockQuery, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}
	defer productRows.Close()

	stats.LowStockProducts = []*domain.Product{}
	for productRows.Next() {
		product, err := scanProduct(productRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan low stock product: %w", err)
		}
		stats.LowStockProducts = append(stats.LowStockProducts, product)
	}
	if err = productRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating low stock products: %w", err)
	}

	return stats, nil
}
