package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerID int64
	EmployeeID int64
	Items      []OrderItemRequest
}

// UpdateOrderRequest carries partial-update semantics: nil fields are left
// unchanged. A non-nil Items slice replaces the full line item set.
type UpdateOrderRequest struct {
	CustomerID *int64
	EmployeeID *int64
	Items      []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

func generateOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func validateOrderItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return database.NewValidationError("an order must contain at least one item")
	}

	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return database.NewValidationError("item quantity must be at least 1, got %d for product %d",
				item.Quantity, item.ProductID)
		}
		if seen[item.ProductID] {
			return database.NewValidationError("product %d appears more than once, merge the lines first",
				item.ProductID)
		}
		seen[item.ProductID] = true
	}

	return nil
}

// CreateOrder validates stock for the full requested quantities, writes the
// header and line items, and consumes stock, all inside one transaction.
// Either everything lands or nothing does; a failed step leaves no partially
// created order behind. The validator's row locks are held until commit, so
// read committed isolation is enough: stock checked is stock consumed.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if req.CustomerID == 0 {
		return nil, database.NewValidationError("a customer must be selected")
	}
	if req.EmployeeID == 0 {
		return nil, database.NewValidationError("an employee must be selected")
	}
	if err := validateOrderItems(req.Items); err != nil {
		return nil, err
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		customerName, err := lookupCustomerName(ctx, tx, req.CustomerID)
		if err != nil {
			return err
		}
		employeeName, err := lookupEmployeeName(ctx, tx, req.EmployeeID)
		if err != nil {
			return err
		}

		demands := make([]stockDemand, 0, len(req.Items))
		for _, item := range req.Items {
			demands = append(demands, stockDemand{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				NewLine:   true,
			})
		}

		snapshots, err := validateStock(ctx, tx, demands)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range req.Items {
			price := snapshots[item.ProductID].Price
			total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, customer_id, customer_name, employee_id, employee_name,
				total, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 RETURNING id`,
			generateOrderNumber(), req.CustomerID, customerName, req.EmployeeID, employeeName,
			total).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range req.Items {
			snapshot := snapshots[item.ProductID]
			subtotal := snapshot.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
				orderID, item.ProductID, snapshot.Name, item.Quantity, snapshot.Price, subtotal)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		for _, item := range req.Items {
			if err := applyStockDelta(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order, err = fetchOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("fetch created order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrder edits an order. Stock is validated and adjusted only for net
// quantity changes: increasing or adding a line needs stock, decreasing or
// removing one only returns it. Header fields not supplied in the request
// are left untouched.
func UpdateOrder(ctx context.Context, db *sql.DB, orderID int64, req UpdateOrderRequest) (*models.Order, error) {
	if req.Items != nil {
		if err := validateOrderItems(req.Items); err != nil {
			return nil, err
		}
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		original, err := fetchOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		setClauses := []string{"updated_at = NOW()"}
		var args []interface{}

		if req.CustomerID != nil {
			customerName, err := lookupCustomerName(ctx, tx, *req.CustomerID)
			if err != nil {
				return err
			}
			args = append(args, *req.CustomerID)
			setClauses = append(setClauses, fmt.Sprintf("customer_id = $%d", len(args)))
			args = append(args, customerName)
			setClauses = append(setClauses, fmt.Sprintf("customer_name = $%d", len(args)))
		}

		if req.EmployeeID != nil {
			employeeName, err := lookupEmployeeName(ctx, tx, *req.EmployeeID)
			if err != nil {
				return err
			}
			args = append(args, *req.EmployeeID)
			setClauses = append(setClauses, fmt.Sprintf("employee_id = $%d", len(args)))
			args = append(args, employeeName)
			setClauses = append(setClauses, fmt.Sprintf("employee_name = $%d", len(args)))
		}

		if req.Items != nil {
			total, err := replaceOrderItems(ctx, tx, original, req.Items)
			if err != nil {
				return err
			}
			args = append(args, total)
			setClauses = append(setClauses, fmt.Sprintf("total = $%d", len(args)))
		}

		args = append(args, orderID)
		query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d",
			strings.Join(setClauses, ", "), len(args))

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		order, err = fetchOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("fetch updated order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// replaceOrderItems swaps the order's full line item set, reconciling stock
// by the per-product deltas. Retained lines keep their original name/price
// snapshots; only genuinely new lines snapshot the product afresh.
func replaceOrderItems(ctx context.Context, tx *sql.Tx, original *models.Order, proposed []OrderItemRequest) (decimal.Decimal, error) {
	originalByProduct := make(map[int64]models.OrderItem, len(original.Items))
	for _, item := range original.Items {
		originalByProduct[item.ProductID] = item
	}

	deltas := computeItemDeltas(original.Items, proposed)

	var demands []stockDemand
	for productID, delta := range deltas {
		if delta <= 0 {
			continue
		}
		_, existed := originalByProduct[productID]
		demands = append(demands, stockDemand{
			ProductID: productID,
			Quantity:  delta,
			NewLine:   !existed,
		})
	}

	snapshots, err := validateStock(ctx, tx, demands)
	if err != nil {
		return decimal.Zero, err
	}

	for _, productID := range sortedProductIDs(deltas) {
		if err := applyStockDelta(ctx, tx, productID, deltas[productID]); err != nil {
			return decimal.Zero, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id = $1`, original.ID); err != nil {
		return decimal.Zero, fmt.Errorf("delete order items: %w", err)
	}

	total := decimal.Zero
	for _, item := range proposed {
		var name string
		var price decimal.Decimal
		if existing, ok := originalByProduct[item.ProductID]; ok {
			name, price = existing.ProductName, existing.UnitPrice
		} else {
			snapshot := snapshots[item.ProductID]
			name, price = snapshot.Name, snapshot.Price
		}

		subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)

		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			original.ID, item.ProductID, name, item.Quantity, price, subtotal)
		if err != nil {
			return decimal.Zero, fmt.Errorf("create order item: %w", err)
		}
	}

	return total, nil
}

// DeleteOrder removes an order and returns every line item's quantity to
// stock, in one transaction.
func DeleteOrder(ctx context.Context, db *sql.DB, orderID int64) error {
	return database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := fetchOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := applyStockDelta(ctx, tx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM orders WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		return nil
	})
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func fetchOrder(ctx context.Context, q querier, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, order_number, customer_id, customer_name, employee_id, employee_name,
			total, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.CustomerName,
		&order.EmployeeID,
		&order.EmployeeName,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if order.CustomerName == "" {
		order.CustomerName = "Unknown customer"
	}

	itemsQuery := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := q.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return fetchOrder(ctx, db, id)
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT id, order_number, customer_id, customer_name, employee_id, employee_name,
			total, created_at, updated_at
		FROM orders
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.CustomerID,
			&order.CustomerName,
			&order.EmployeeID,
			&order.EmployeeName,
			&order.Total,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
