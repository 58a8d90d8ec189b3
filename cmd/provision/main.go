// Command provision creates the designated Admin account and prints its id.
//
//	ADMIN_EMAIL=admin@mcash.com ADMIN_MOBILE=01000000000 ADMIN_PIN=54321 go run ./cmd/provision
//
// Set the printed id as LEDGER_ADMINACCOUNTID for the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/config"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	mongorepo "github.com/ArowuTest/mcash-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/mcash-backend/internal/utils"
	"github.com/ArowuTest/mcash-backend/pkg/mongodb"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	pin := config.GetEnv("ADMIN_PIN", "")
	if len(pin) < 4 || len(pin) > 6 {
		slog.Error("ADMIN_PIN must be 4 to 6 digits")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	hash, err := utils.NewPINHasher(cfg.PIN.Cost).Hash(pin)
	if err != nil {
		slog.Error("Failed to hash PIN", "error", err)
		os.Exit(1)
	}

	admin := &models.Account{
		Name:         config.GetEnv("ADMIN_NAME", "mCash Admin"),
		Role:         models.RoleAdmin,
		Email:        config.GetEnv("ADMIN_EMAIL", "admin@mcash.com"),
		MobileNumber: config.GetEnv("ADMIN_MOBILE", "01000000000"),
		NationalID:   config.GetEnv("ADMIN_NID", "admin"),
		PINHash:      hash,
		Balance:      config.GetEnvAsInt64("ADMIN_OPENING_BALANCE", 0),
		Approved:     true,
		CreatedAt:    time.Now().UTC(),
	}

	accounts := mongorepo.NewAccountRepository(db)
	if err := accounts.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			existing, findErr := accounts.FindByEmail(ctx, admin.Email)
			if findErr == nil && existing.Role == models.RoleAdmin {
				slog.Info("Admin account already exists", "email", admin.Email)
				fmt.Println(existing.ID.Hex())
				return
			}
		}
		slog.Error("Failed to create admin account", "error", err)
		os.Exit(1)
	}

	slog.Info("Admin account created", "email", admin.Email)
	fmt.Println(admin.ID.Hex())
}
