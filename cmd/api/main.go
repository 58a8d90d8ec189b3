package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/mcash-backend/api/routes"
	"github.com/ArowuTest/mcash-backend/internal/config"
	"github.com/ArowuTest/mcash-backend/internal/handlers"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"github.com/ArowuTest/mcash-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/mcash-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/ArowuTest/mcash-backend/internal/utils"
	"github.com/ArowuTest/mcash-backend/pkg/events"
	"github.com/ArowuTest/mcash-backend/pkg/jwt"
	"github.com/ArowuTest/mcash-backend/pkg/mongodb"
	"github.com/ArowuTest/mcash-backend/pkg/smsgateway"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// store bundles the repositories of one backing store
type store struct {
	accounts   repositories.AccountRepository
	ledger     repositories.TransactionRepository
	requests   repositories.RechargeRequestRepository
	transactor repositories.Transactor
	close      func(context.Context) error
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()

	adminID, err := resolveAdmin(ctx, st.accounts, cfg.Ledger.AdminAccountID)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closePublisher()

	primary, fallback := newSMSGateways(cfg.SMS)
	notifier := services.NewNotificationService(publisher, primary, fallback)

	fees, err := services.NewFeePolicy(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("invalid ledger configuration: %w", err)
	}
	pins := utils.NewPINHasher(cfg.PIN.Cost)
	tokenTTL := time.Duration(cfg.JWT.ExpiresIn) * time.Second
	tokens := jwt.NewTokenService(cfg.JWT.Secret, tokenTTL)

	transferService := services.NewTransferService(st.accounts, st.ledger, st.transactor, pins, fees, adminID, notifier)
	rechargeService := services.NewRechargeService(st.accounts, st.requests, st.transactor, fees, notifier)
	approvalService := services.NewAgentApprovalService(st.accounts, notifier)
	authService := services.NewAuthService(st.accounts, pins, tokens, notifier, cfg.Ledger)
	accountService := services.NewAccountService(st.accounts, st.ledger, adminID)

	secureCookie := !strings.EqualFold(cfg.LogLevel, "debug")
	router := routes.SetupRouter(cfg, tokens, routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, tokenTTL, secureCookie),
		User:        handlers.NewUserHandler(accountService),
		Transaction: handlers.NewTransactionHandler(transferService),
		Recharge:    handlers.NewRechargeHandler(rechargeService),
		Admin:       handlers.NewAdminHandler(accountService, approvalService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exiting")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("Using in-memory storage; all data is lost on exit")
		mem := memory.NewStore()
		st := &store{
			accounts:   memory.NewAccountRepository(mem),
			ledger:     memory.NewTransactionRepository(mem),
			requests:   memory.NewRechargeRequestRepository(mem),
			transactor: mem,
			close:      func(context.Context) error { return nil },
		}
		// The memory store starts empty, so it carries its own Admin
		if err := seedMemoryAdmin(ctx, cfg, st.accounts); err != nil {
			return nil, err
		}
		return st, nil

	case "mongodb", "":
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDB.Database)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		slog.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
		return &store{
			accounts:   mongorepo.NewAccountRepository(db),
			ledger:     mongorepo.NewTransactionRepository(db),
			requests:   mongorepo.NewRechargeRequestRepository(db),
			transactor: mongorepo.NewTransactor(client),
			close:      client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// seedMemoryAdmin creates the Admin under the configured id, or a fresh one when unset
func seedMemoryAdmin(ctx context.Context, cfg *config.Config, accounts repositories.AccountRepository) error {
	adminID := primitive.NewObjectID()
	if cfg.Ledger.AdminAccountID != "" {
		id, err := primitive.ObjectIDFromHex(cfg.Ledger.AdminAccountID)
		if err != nil {
			return fmt.Errorf("invalid admin account id: %w", err)
		}
		adminID = id
	}
	hash, err := utils.NewPINHasher(cfg.PIN.Cost).Hash(config.GetEnv("ADMIN_PIN", "00000"))
	if err != nil {
		return err
	}
	admin := &models.Account{
		ID:           adminID,
		Name:         "mCash Admin",
		Role:         models.RoleAdmin,
		Email:        config.GetEnv("ADMIN_EMAIL", "admin@mcash.local"),
		MobileNumber: config.GetEnv("ADMIN_MOBILE", "01000000000"),
		NationalID:   "admin",
		PINHash:      hash,
		Approved:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := accounts.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	cfg.Ledger.AdminAccountID = adminID.Hex()
	slog.Info("Seeded in-memory admin account", "account", adminID.Hex(), "email", admin.Email)
	return nil
}

// resolveAdmin fails startup unless the configured id names an Admin account
func resolveAdmin(ctx context.Context, accounts repositories.AccountRepository, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, errors.New("LEDGER_ADMINACCOUNTID is not configured; run cmd/provision first")
	}
	adminID, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid admin account id %q: %w", hex, err)
	}
	admin, err := accounts.FindByID(ctx, adminID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to load admin account %s: %w", hex, err)
	}
	if admin.Role != models.RoleAdmin {
		return primitive.NilObjectID, fmt.Errorf("account %s is not an admin", hex)
	}
	return adminID, nil
}

func newPublisher(ctx context.Context, cfg config.RedisConfig) (services.EventPublisher, func(), error) {
	if !cfg.Enabled {
		slog.Info("Redis disabled; domain events are discarded")
		return events.Discard{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("Publishing domain events", "addr", cfg.Addr, "stream", cfg.Stream)
	return events.NewPublisher(client, cfg.Stream), func() { _ = client.Close() }, nil
}

// newSMSGateways returns the primary gateway and the fallback used when it fails.
// With a real gateway the fallback is the mock, so undelivered texts still reach the log.
func newSMSGateways(cfg config.SMSConfig) (smsgateway.Gateway, smsgateway.Gateway) {
	if cfg.Mock || cfg.BaseURL == "" {
		return smsgateway.NewMockGateway("primary"), nil
	}
	return smsgateway.NewHTTPGateway(cfg.BaseURL, cfg.APIKey, cfg.SenderID), smsgateway.NewMockGateway("fallback")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if lvl > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
