package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type server struct {
	db  *sql.DB
	log *zap.Logger
}

func (s *server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		s.log.Debug("request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	var validationErr *database.ValidationError
	var stockErr *database.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &stockErr),
		errors.Is(err, database.ErrProductUnavailable):
		return http.StatusConflict
	case errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrEmployeeNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// --- customers ---

type customerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	customer, err := store.CreateCustomer(r.Context(), s.db, req.Name, req.Email, req.Phone)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, customer)
}

func (s *server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListCustomers(r.Context(), s.db, page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := store.GetCustomer(r.Context(), s.db, pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, customer)
}

func (s *server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	customer, err := store.UpdateCustomer(r.Context(), s.db, pathID(r), req.Name, req.Email, req.Phone)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, customer)
}

func (s *server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteCustomer(r.Context(), s.db, pathID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- employees ---

type employeePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	employee, err := store.CreateEmployee(r.Context(), s.db, req.Name, req.Email, req.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, employee)
}

func (s *server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListEmployees(r.Context(), s.db, page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := store.GetEmployee(r.Context(), s.db, pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, employee)
}

func (s *server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	employee, err := store.UpdateEmployee(r.Context(), s.db, pathID(r), req.Name, req.Email, req.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, employee)
}

func (s *server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteEmployee(r.Context(), s.db, pathID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- products ---

type productPayload struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Status      string  `json:"status"`
	Category    string  `json:"category"`

	Color        *string `json:"color"`
	Storage      *string `json:"storage"`
	Wattage      *int    `json:"wattage"`
	FastCharging *bool   `json:"fast_charging"`
	CableType    *string `json:"cable_type"`
	CableLength  *string `json:"cable_length"`
}

func (p *productPayload) toInput() store.ProductInput {
	return store.ProductInput{
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Price:        decimal.NewFromFloat(p.Price),
		Stock:        p.Stock,
		Status:       p.Status,
		Category:     p.Category,
		Color:        p.Color,
		Storage:      p.Storage,
		Wattage:      p.Wattage,
		FastCharging: p.FastCharging,
		CableType:    p.CableType,
		CableLength:  p.CableLength,
	}
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	product, err := store.CreateProduct(r.Context(), s.db, req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, product)
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListProducts(r.Context(), s.db, page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), s.db, pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, product)
}

func (s *server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	product, err := store.UpdateProduct(r.Context(), s.db, pathID(r), req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, product)
}

func (s *server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteProduct(r.Context(), s.db, pathID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- orders ---

type orderItemPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func toItemRequests(items []orderItemPayload) []store.OrderItemRequest {
	requests := make([]store.OrderItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, store.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return requests
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int64              `json:"customer_id"`
		EmployeeID int64              `json:"employee_id"`
		Items      []orderItemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	order, err := store.CreateOrder(r.Context(), s.db, store.CreateOrderRequest{
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
		Items:      toItemRequests(req.Items),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.log.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()))
	s.respondJSON(w, http.StatusCreated, order)
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListOrdersCursor(r.Context(), s.db, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrder(r.Context(), s.db, pathID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, order)
}

func (s *server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID *int64              `json:"customer_id"`
		EmployeeID *int64              `json:"employee_id"`
		Items      *[]orderItemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, database.NewValidationError("invalid request body"))
		return
	}

	updateReq := store.UpdateOrderRequest{
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
	}
	if req.Items != nil {
		updateReq.Items = toItemRequests(*req.Items)
	}

	order, err := store.UpdateOrder(r.Context(), s.db, pathID(r), updateReq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.log.Info("order updated",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.Total.String()))
	s.respondJSON(w, http.StatusOK, order)
}

func (s *server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := store.DeleteOrder(r.Context(), s.db, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.log.Info("order deleted", zap.Int64("order_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// --- revenue ---

func (s *server) handleRevenueSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.GetRevenueSummary(r.Context(), s.db)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *server) handleRevenueByDay(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(w, r, database.NewValidationError("invalid 'from' date, expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.respondError(w, r, database.NewValidationError("invalid 'to' date, expected YYYY-MM-DD"))
			return
		}
		// Inclusive end date.
		to = parsed.AddDate(0, 0, 1)
	}

	days, err := store.GetRevenueByDay(r.Context(), s.db, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, days)
}

func (s *server) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	products, err := store.GetTopProducts(r.Context(), s.db, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, products)
}
