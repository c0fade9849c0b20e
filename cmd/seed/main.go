package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/account-service-go/configs"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/database"
	"github.com/nimeshabuddhika/account-service-go/pkg/dtos"
	"github.com/nimeshabuddhika/account-service-go/pkg/models"
	"github.com/nimeshabuddhika/account-service-go/pkg/repositories"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	"go.uber.org/zap"
)

// main seeds synthetic accounts into the database.
// It initializes logging, loads config, connects to the database, runs migrations,
// and performs inserts inside a single transaction.
func main() {
	noOfAccounts := flag.Int("noOfAccounts", 1000, "Number of accounts to seed")
	exportData := flag.Bool("exportData", true, "Export seeded accounts to JSON after seeding")

	flag.Parse()

	// Initialize logger
	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}

	ctx := context.Background()
	db, closer, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		logger.Fatal("failed_to_init_DB", zap.Error(err))
	}
	defer closer()

	// Initialize db migrations
	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		logger.Fatal("failed_to_run_database_migrations", zap.Error(err))
	}

	accountRepo := repositories.NewAccountRepository()
	seeded := make([]views.AccountResponse, 0, *noOfAccounts)

	// Seed data within a transaction to ensure atomicity.
	err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for i := 1; i <= *noOfAccounts; i++ {
			created, err := accountRepo.Create(ctx, tx, syntheticAccount(i))
			if err != nil {
				return err
			}
			logger.Info("creating_account", zap.Int64("account_id", created.ID), zap.String("email", created.Email))
			seeded = append(seeded, created.ToView())
		}
		return nil
	})
	if err != nil {
		logger.Fatal("failed_to_seed_data", zap.Error(err))
	}
	logger.Info("data_seeded_successfully", zap.Int("count", len(seeded)))

	// Optional export
	if *exportData {
		result := dtos.SeedResult{
			Accounts:  seeded,
			Count:     len(seeded),
			CreatedAt: time.Now(),
		}
		jsonData, err := json.Marshal(result)
		if err != nil {
			logger.Fatal("failed_to_marshal_export", zap.Error(err))
		}
		// create data folder if not exist
		path := filepath.Join(".", "data")
		if err = os.MkdirAll(path, os.ModePerm); err != nil {
			logger.Fatal("failed_to_create_dir", zap.Error(err), zap.String("directory", path))
		}
		// Write seeded account data
		path = filepath.Join(path, "seeded_accounts.json")
		if err = os.WriteFile(path, jsonData, 0644); err != nil {
			logger.Fatal("failed_to_write_json", zap.Error(err))
		}
		logger.Info("accounts_exported_successfully", zap.String("file", path), zap.Int("data_count", len(seeded)))
	}
}

// syntheticAccount builds the i'th account; every third row carries no phone
// number so the nullable column shows up in seeded data.
func syntheticAccount(i int) models.Account {
	var phone *string
	if i%3 != 0 {
		p := fmt.Sprintf("+1-555-%04d", rand.Intn(10000))
		phone = &p
	}
	return models.Account{
		Name:        fmt.Sprintf("user_%d", i),
		Email:       fmt.Sprintf("user_%d@example.com", i),
		Address:     fmt.Sprintf("%d Main Street", i),
		PhoneNumber: phone,
		DateJoined:  time.Now().AddDate(0, 0, -rand.Intn(365)),
	}
}
