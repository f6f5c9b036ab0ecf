package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/api/internal/auth"
	"github.com/eaglebank/api/internal/cache"
	"github.com/eaglebank/api/internal/config"
	"github.com/eaglebank/api/internal/events"
	"github.com/eaglebank/api/internal/handler"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/middleware"
	"github.com/eaglebank/api/internal/storage/postgres"
	"github.com/eaglebank/api/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(os.Getenv("EAGLE_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		slog.Error("failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := cache.NewClient(cfg.RedisAddr, "", 0)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	store := postgres.NewStore(db)
	publisher := events.NewPublisher(redisClient.Client)
	accountViews := cache.NewAccountViews(redisClient.Client, 0)
	accountCounts := cache.NewAccountCounts(redisClient.Client)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		slog.Error("failed to init token service", "error", err)
		os.Exit(1)
	}

	userSvc := user.NewService(store, store, accountCounts, publisher)
	authSvc := auth.NewService(userSvc, tokens)

	var allocator ledger.Allocator
	switch cfg.AllocationStrategy {
	case config.AllocationRandom:
		allocator = ledger.NewRandomAllocator(store)
	default:
		allocator = ledger.NewSequentialAllocator(store)
	}

	accountSvc := ledger.NewAccountService(store, userSvc, allocator, ledger.AccountServiceConfig{
		SortCode: cfg.SortCode,
		Currency: cfg.Currency,
		Cache:    accountViews,
		Events:   publisher,
	})

	maxAmount, err := decimal.NewFromString(cfg.MaxTransactionAmount)
	if err != nil {
		slog.Error("invalid max transaction amount", "value", cfg.MaxTransactionAmount, "error", err)
		os.Exit(1)
	}
	transactionSvc := ledger.NewTransactionService(store, ledger.TransactionServiceConfig{
		MaxAmount: maxAmount,
		Cache:     accountViews,
		Events:    publisher,
	})

	userHandler := handler.NewUserHandler(userSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logging())
	authRequired := middleware.Auth(tokens)

	v1 := router.Group("/v1")
	{
		v1.POST("/users", userHandler.CreateUser)
		v1.GET("/users/:userId", authRequired, userHandler.GetUser)
		v1.PATCH("/users/:userId", authRequired, userHandler.UpdateUser)
		v1.DELETE("/users/:userId", authRequired, userHandler.DeleteUser)

		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)

		accounts := v1.Group("/accounts", authRequired)
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("", accountHandler.ListAccounts)
			accounts.GET("/:accountNumber", accountHandler.GetAccount)
			accounts.PATCH("/:accountNumber", accountHandler.UpdateAccount)
			accounts.DELETE("/:accountNumber", accountHandler.DeleteAccount)

			accounts.POST("/:accountNumber/transactions", transactionHandler.CreateTransaction)
			accounts.GET("/:accountNumber/transactions", transactionHandler.ListTransactions)
			accounts.GET("/:accountNumber/transactions/:transactionId", transactionHandler.GetTransaction)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		subscriber := events.NewSubscriber(redisClient.Client, events.SubscriberConfig{
			Group:    "eagle-bank-group",
			Consumer: "eagle-consumer-1",
			Stream:   events.AccountEventsStream,
			Handler:  userSvc.HandleAccountEvent,
		})
		if err := subscriber.Start(ctx); err != nil {
			slog.Info("subscriber stopped", "error", err)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down")
		cancel()
	}()

	slog.Info("eagle bank API starting", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
