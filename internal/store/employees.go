package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/models"
)

func CreateEmployee(ctx context.Context, db *sql.DB, name, email, role string) (*models.Employee, error) {
	if name == "" {
		return nil, database.NewValidationError("employee name is required")
	}

	employee := &models.Employee{}

	query := `
		INSERT INTO employees (name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, email, role, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, email, role).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Role,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	return employee, nil
}

func GetEmployee(ctx context.Context, db *sql.DB, id int64) (*models.Employee, error) {
	employee := &models.Employee{}

	query := `
		SELECT id, name, email, role, created_at, updated_at
		FROM employees
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Role,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}

	return employee, nil
}

func UpdateEmployee(ctx context.Context, db *sql.DB, id int64, name, email, role string) (*models.Employee, error) {
	if name == "" {
		return nil, database.NewValidationError("employee name is required")
	}

	employee := &models.Employee{}

	query := `
		UPDATE employees
		SET name = $1, email = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, email, role, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, email, role, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Role,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}

	return employee, nil
}

func DeleteEmployee(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrEmployeeNotFound
	}

	return nil
}

func ListEmployees(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, name, email, role, created_at, updated_at
		FROM employees
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var employee models.Employee
		err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Email,
			&employee.Role,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      employees,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func lookupEmployeeName(ctx context.Context, tx *sql.Tx, id int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx, `SELECT name FROM employees WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", database.ErrEmployeeNotFound
		}
		return "", fmt.Errorf("lookup employee name: %w", err)
	}
	return name, nil
}
