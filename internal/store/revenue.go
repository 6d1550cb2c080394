package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RevenueSummary struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int64           `json:"order_count"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

type DailyRevenue struct {
	Day        time.Time       `json:"day"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"order_count"`
}

type ProductRevenue struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

func GetRevenueSummary(ctx context.Context, db *sql.DB) (*RevenueSummary, error) {
	summary := &RevenueSummary{}

	query := `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders`

	err := db.QueryRowContext(ctx, query).Scan(&summary.TotalRevenue, &summary.OrderCount)
	if err != nil {
		return nil, fmt.Errorf("revenue summary: %w", err)
	}

	if summary.OrderCount > 0 {
		summary.AverageOrder = summary.TotalRevenue.
			Div(decimal.NewFromInt(summary.OrderCount)).
			Round(2)
	} else {
		summary.AverageOrder = decimal.Zero
	}

	return summary, nil
}

func GetRevenueByDay(ctx context.Context, db *sql.DB, from, to time.Time) ([]DailyRevenue, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`

	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}
	defer rows.Close()

	var days []DailyRevenue
	for rows.Next() {
		var day DailyRevenue
		if err := rows.Scan(&day.Day, &day.Revenue, &day.OrderCount); err != nil {
			return nil, fmt.Errorf("scan daily revenue: %w", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return days, nil
}

// GetTopProducts ranks products by revenue using the line item snapshots, so
// later catalog price changes do not rewrite history.
func GetTopProducts(ctx context.Context, db *sql.DB, limit int) ([]ProductRevenue, error) {
	query := `
		SELECT product_id, product_name, SUM(quantity), COALESCE(SUM(subtotal), 0)
		FROM order_items
		GROUP BY product_id, product_name
		ORDER BY SUM(subtotal) DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var products []ProductRevenue
	for rows.Next() {
		var product ProductRevenue
		if err := rows.Scan(&product.ProductID, &product.ProductName, &product.UnitsSold, &product.Revenue); err != nil {
			return nil, fmt.Errorf("scan product revenue: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
