package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/models"
	"github.com/shopspring/decimal"
)

// stockDemand is one line of net new demand against a product. NewLine marks
// lines that did not exist on the order before: only those are blocked by an
// unavailable or sold-out product, existing lines stay editable.
type stockDemand struct {
	ProductID int64
	Quantity  int
	NewLine   bool
}

type productSnapshot struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

// validateStock locks each demanded product row and checks that the demand
// can be met. It returns the name/price snapshots the order writer
// denormalizes onto line items. The rows stay locked until the surrounding
// transaction ends, so the stock seen here is the stock the reconciler
// adjusts. Locks are always taken in product id order to keep concurrent
// writers from deadlocking each other.
func validateStock(ctx context.Context, tx *sql.Tx, demands []stockDemand) (map[int64]productSnapshot, error) {
	sorted := make([]stockDemand, len(demands))
	copy(sorted, demands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	snapshots := make(map[int64]productSnapshot, len(sorted))

	for _, demand := range sorted {
		var (
			name   string
			price  decimal.Decimal
			stock  int
			status string
		)

		err := tx.QueryRowContext(ctx,
			`SELECT name, price, stock, status
			 FROM products
			 WHERE id = $1
			 FOR UPDATE`,
			demand.ProductID).Scan(&name, &price, &stock, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, database.ErrProductNotFound
			}
			return nil, fmt.Errorf("lock product %d: %w", demand.ProductID, err)
		}

		if demand.NewLine && (status != models.ProductStatusAvailable || stock == 0) {
			return nil, fmt.Errorf("product %q: %w", name, database.ErrProductUnavailable)
		}

		if demand.Quantity > stock {
			return nil, &database.InsufficientStockError{
				ProductID:   demand.ProductID,
				ProductName: name,
				Available:   stock,
				Requested:   demand.Quantity,
			}
		}

		snapshots[demand.ProductID] = productSnapshot{Name: name, Price: price, Stock: stock}
	}

	return snapshots, nil
}

// applyStockDelta adjusts a product's stock by a signed delta: positive
// consumes units, negative returns them. Consumption is guarded in the
// UPDATE itself so stock can never go below zero, even if a concurrent
// writer got between validation and this statement.
func applyStockDelta(ctx context.Context, tx *sql.Tx, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	if delta < 0 {
		_, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET stock = stock + $1,
			     updated_at = NOW()
			 WHERE id = $2`,
			-delta, productID)
		if err != nil {
			return fmt.Errorf("return stock for product %d: %w", productID, err)
		}
		return nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock >= $1`,
		delta, productID)
	if err != nil {
		return fmt.Errorf("consume stock for product %d: %w", productID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var name string
		var stock int
		if err := tx.QueryRowContext(ctx,
			`SELECT name, stock FROM products WHERE id = $1`,
			productID).Scan(&name, &stock); err != nil {
			if err == sql.ErrNoRows {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("inspect product %d: %w", productID, err)
		}
		return &database.InsufficientStockError{
			ProductID:   productID,
			ProductName: name,
			Available:   stock,
			Requested:   delta,
		}
	}

	return nil
}

// computeItemDeltas maps each product touched by an edit to newQty - oldQty.
// A product missing from one side counts as quantity zero there, so removed
// lines yield negative deltas and added lines positive ones.
func computeItemDeltas(original []models.OrderItem, proposed []OrderItemRequest) map[int64]int {
	deltas := make(map[int64]int)

	for _, item := range original {
		deltas[item.ProductID] -= item.Quantity
	}
	for _, item := range proposed {
		deltas[item.ProductID] += item.Quantity
	}

	for productID, delta := range deltas {
		if delta == 0 {
			delete(deltas, productID)
		}
	}

	return deltas
}

func sortedProductIDs(deltas map[int64]int) []int64 {
	ids := make([]int64, 0, len(deltas))
	for productID := range deltas {
		ids = append(ids, productID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
