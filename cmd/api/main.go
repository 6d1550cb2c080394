package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/selim/storedesk/internal/config"
	"github.com/selim/storedesk/internal/database"
	"github.com/selim/storedesk/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(&cfg.Logger)
	defer log.Sync()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("connected to database")

	srv := &server{db: db, log: log}

	router := mux.NewRouter()

	router.HandleFunc("/customers", srv.handleCreateCustomer).Methods(http.MethodPost)
	router.HandleFunc("/customers", srv.handleListCustomers).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id:[0-9]+}", srv.handleGetCustomer).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id:[0-9]+}", srv.handleUpdateCustomer).Methods(http.MethodPut)
	router.HandleFunc("/customers/{id:[0-9]+}", srv.handleDeleteCustomer).Methods(http.MethodDelete)

	router.HandleFunc("/employees", srv.handleCreateEmployee).Methods(http.MethodPost)
	router.HandleFunc("/employees", srv.handleListEmployees).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}", srv.handleGetEmployee).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}", srv.handleUpdateEmployee).Methods(http.MethodPut)
	router.HandleFunc("/employees/{id:[0-9]+}", srv.handleDeleteEmployee).Methods(http.MethodDelete)

	router.HandleFunc("/products", srv.handleCreateProduct).Methods(http.MethodPost)
	router.HandleFunc("/products", srv.handleListProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/{id:[0-9]+}", srv.handleGetProduct).Methods(http.MethodGet)
	router.HandleFunc("/products/{id:[0-9]+}", srv.handleUpdateProduct).Methods(http.MethodPut)
	router.HandleFunc("/products/{id:[0-9]+}", srv.handleDeleteProduct).Methods(http.MethodDelete)

	router.HandleFunc("/orders", srv.handleCreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders", srv.handleListOrders).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id:[0-9]+}", srv.handleGetOrder).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id:[0-9]+}", srv.handleUpdateOrder).Methods(http.MethodPut)
	router.HandleFunc("/orders/{id:[0-9]+}", srv.handleDeleteOrder).Methods(http.MethodDelete)

	router.HandleFunc("/revenue/summary", srv.handleRevenueSummary).Methods(http.MethodGet)
	router.HandleFunc("/revenue/daily", srv.handleRevenueByDay).Methods(http.MethodGet)
	router.HandleFunc("/revenue/top-products", srv.handleTopProducts).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
