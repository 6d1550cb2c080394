package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/models"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Status      string
	Category    string

	Color        *string
	Storage      *string
	Wattage      *int
	FastCharging *bool
	CableType    *string
	CableLength  *string
}

const productColumns = `id, sku, name, description, price, stock, status, category,
	color, storage, wattage, fast_charging, cable_type, cable_length,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Status,
		&product.Category,
		&product.Color,
		&product.Storage,
		&product.Wattage,
		&product.FastCharging,
		&product.CableType,
		&product.CableLength,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func validateProductInput(input *ProductInput) error {
	if input.Name == "" {
		return database.NewValidationError("product name is required")
	}
	if input.Price.IsNegative() {
		return database.NewValidationError("product price cannot be negative")
	}
	if input.Stock < 0 {
		return database.NewValidationError("product stock cannot be negative")
	}

	if input.Status == "" {
		input.Status = models.ProductStatusAvailable
	}
	if input.Status != models.ProductStatusAvailable && input.Status != models.ProductStatusUnavailable {
		return database.NewValidationError("unknown product status %q", input.Status)
	}

	known := false
	for _, category := range models.Categories {
		if input.Category == category {
			known = true
			break
		}
	}
	if !known {
		return database.NewValidationError("unknown product category %q", input.Category)
	}

	// Attributes only make sense within their own category.
	if input.Category != models.CategoryIPhone {
		input.Color, input.Storage = nil, nil
	}
	if input.Category != models.CategoryCharger {
		input.Wattage, input.FastCharging = nil, nil
	}
	if input.Category != models.CategoryCable {
		input.CableType, input.CableLength = nil, nil
	}

	return nil
}

func CreateProduct(ctx context.Context, db *sql.DB, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO products (sku, name, description, price, stock, status, category,
			color, storage, wattage, fast_charging, cable_type, cable_length,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		input.SKU, input.Name, input.Description, input.Price, input.Stock,
		input.Status, input.Category,
		input.Color, input.Storage, input.Wattage, input.FastCharging,
		input.CableType, input.CableLength))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}

	query := `
		UPDATE products
		SET sku = $1, name = $2, description = $3, price = $4, stock = $5,
			status = $6, category = $7, color = $8, storage = $9, wattage = $10,
			fast_charging = $11, cable_type = $12, cable_length = $13,
			updated_at = NOW()
		WHERE id = $14
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		input.SKU, input.Name, input.Description, input.Price, input.Stock,
		input.Status, input.Category,
		input.Color, input.Storage, input.Wattage, input.FastCharging,
		input.CableType, input.CableLength, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
