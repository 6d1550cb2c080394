package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/models"
)

func CreateCustomer(ctx context.Context, db *sql.DB, name, email, phone string) (*models.Customer, error) {
	if name == "" {
		return nil, database.NewValidationError("customer name is required")
	}

	customer := &models.Customer{}

	query := `
		INSERT INTO customers (name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, email, phone, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, email, phone).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM customers
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, name, email, phone string) (*models.Customer, error) {
	if name == "" {
		return nil, database.NewValidationError("customer name is required")
	}

	customer := &models.Customer{}

	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, email, phone, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, email, phone, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return customer, nil
}

func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCustomerNotFound
	}

	return nil
}

func ListCustomers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      customers,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// lookupCustomerName resolves the name snapshot stored on order headers.
func lookupCustomerName(ctx context.Context, tx *sql.Tx, id int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx, `SELECT name FROM customers WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", database.ErrCustomerNotFound
		}
		return "", fmt.Errorf("lookup customer name: %w", err)
	}
	return name, nil
}
