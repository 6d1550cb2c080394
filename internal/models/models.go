package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	ProductStatusAvailable   = "available"
	ProductStatusUnavailable = "unavailable"
)

const (
	CategoryIPhone  = "iPhone"
	CategoryCharger = "Charger"
	CategoryCable   = "Cable"
	CategoryAirPod  = "AirPod"
)

// Categories is the fixed catalog taxonomy. AirPod carries no extra
// attributes; the other categories use the nullable columns below.
var Categories = []string{CategoryIPhone, CategoryCharger, CategoryCable, CategoryAirPod}

type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`

	// iPhone
	Color   *string `json:"color,omitempty"`
	Storage *string `json:"storage,omitempty"`
	// Charger
	Wattage      *int  `json:"wattage,omitempty"`
	FastCharging *bool `json:"fast_charging,omitempty"`
	// Cable
	CableType   *string `json:"cable_type,omitempty"`
	CableLength *string `json:"cable_length,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	// CustomerName and EmployeeName are snapshots taken at write time; they
	// do not track later renames of the referenced rows.
	CustomerName string          `json:"customer_name"`
	EmployeeID   int64           `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Items        []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	// ProductName and UnitPrice are snapshots of the product at the time the
	// line was written.
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}
