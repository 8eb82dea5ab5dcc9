package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
	"github.com/billpayhq/billpay-service/internal/handler"
	"github.com/billpayhq/billpay-service/internal/integrations/plaid"
	"github.com/billpayhq/billpay-service/internal/middleware"
	"github.com/billpayhq/billpay-service/internal/repository"
	"github.com/billpayhq/billpay-service/internal/service"
	"github.com/billpayhq/billpay-service/internal/utils/email"
	"github.com/billpayhq/billpay-service/internal/vault"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	tokenVault := vault.New(cfg.EncryptionKey, logger)
	plaidClient := plaid.NewClient(cfg, logger)

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg, logger)
	}

	svc := service.NewService(repo, plaidClient, tokenVault, mailer, cfg, logger)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/forgot-password", h.ForgotPassword).Methods("POST")
	r.HandleFunc("/reset-password", h.ResetPassword).Methods("POST")
	r.HandleFunc("/plaid/webhook", h.Webhook).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/me", h.Me).Methods("GET")
	authRouter.HandleFunc("/dashboard", h.Dashboard).Methods("GET")

	authRouter.HandleFunc("/plaid/link-token", h.CreateLinkToken).Methods("POST")
	authRouter.HandleFunc("/plaid/exchange", h.ExchangePublicToken).Methods("POST")
	authRouter.HandleFunc("/plaid/unlink", h.Unlink).Methods("POST")

	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	authRouter.HandleFunc("/accounts/refresh", h.RefreshAccounts).Methods("POST")
	authRouter.HandleFunc("/accounts/{id:[0-9]+}", h.GetAccount).Methods("GET")
	authRouter.HandleFunc("/accounts/{id:[0-9]+}/balance", h.UpdateAccountBalance).Methods("PUT")
	authRouter.HandleFunc("/accounts/{id:[0-9]+}/import", h.ImportStatement).Methods("POST")

	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/refresh", h.RefreshTransactions).Methods("POST")
	authRouter.HandleFunc("/transactions/{id:[0-9]+}", h.GetTransaction).Methods("GET")
	authRouter.HandleFunc("/transactions/{id:[0-9]+}/notes", h.UpdateTransactionNotes).Methods("PUT")

	authRouter.HandleFunc("/bills", h.CreateBill).Methods("POST")
	authRouter.HandleFunc("/bills", h.ListBills).Methods("GET")
	authRouter.HandleFunc("/bills/detect", h.DetectRecurringBills).Methods("POST")
	authRouter.HandleFunc("/bills/refresh-liabilities", h.RefreshLiabilities).Methods("POST")
	authRouter.HandleFunc("/bills/{id:[0-9]+}", h.GetBill).Methods("GET")
	authRouter.HandleFunc("/bills/{id:[0-9]+}", h.UpdateBill).Methods("PUT")
	authRouter.HandleFunc("/bills/{id:[0-9]+}", h.DeleteBill).Methods("DELETE")
	authRouter.HandleFunc("/bills/{id:[0-9]+}/toggle", h.ToggleBillPaid).Methods("POST")

	authRouter.HandleFunc("/income", h.CreateIncome).Methods("POST")
	authRouter.HandleFunc("/income", h.ListIncomes).Methods("GET")
	authRouter.HandleFunc("/income/detect", h.DetectIncomes).Methods("POST")
	authRouter.HandleFunc("/income/projection", h.IncomeProjection).Methods("GET")
	authRouter.HandleFunc("/income/{id:[0-9]+}", h.GetIncome).Methods("GET")
	authRouter.HandleFunc("/income/{id:[0-9]+}", h.UpdateIncome).Methods("PUT")
	authRouter.HandleFunc("/income/{id:[0-9]+}", h.DeleteIncome).Methods("DELETE")

	// Schedule bill reminders when a mailer is configured
	if mailer != nil {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.ReminderCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := svc.SendBillReminders(ctx); err != nil {
				logger.Errorf("Bill reminder run failed: %v", err)
			}
		}); err != nil {
			logger.Fatalf("Failed to schedule bill reminders: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
