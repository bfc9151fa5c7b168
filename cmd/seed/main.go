package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"shineal/internal/app"
	"shineal/internal/config"
	apperrors "shineal/internal/errors"
	"shineal/internal/logging"
	"shineal/internal/service"
)

// SeedAccount is one entry of a seed file.
type SeedAccount struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var demoAccounts = []SeedAccount{
	{FullName: "Demo User", Email: "demo@example.com", Password: "demo-password"},
	{FullName: "Test User", Email: "test@example.com", Password: "test-password"},
}

func main() {
	file := flag.String("file", "", "JSON file with an array of {fullName, email, password}; demo accounts when empty")
	deactivate := flag.String("deactivate", "", "deactivate the user with this id instead of seeding")
	flag.Parse()

	if err := run(*file, *deactivate); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(file, deactivateID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if deactivateID != "" {
		if err := a.Accounts.Deactivate(ctx, deactivateID); err != nil {
			return fmt.Errorf("deactivate %s: %w", deactivateID, err)
		}
		logger.Info("account deactivated", "user_id", deactivateID)
		return nil
	}

	accounts := demoAccounts
	if file != "" {
		if accounts, err = readSeedFile(file); err != nil {
			return err
		}
	}

	created, skipped, err := seedAccounts(ctx, a.Accounts, accounts, logger)
	if err != nil {
		return err
	}
	logger.Info("seed completed", "created", created, "skipped", skipped)
	return nil
}

func readSeedFile(path string) ([]SeedAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var accounts []SeedAccount
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return accounts, nil
}

// seedAccounts signs up every account, skipping emails that already exist.
func seedAccounts(ctx context.Context, svc service.AccountService, accounts []SeedAccount, logger *slog.Logger) (created, skipped int, err error) {
	for _, acc := range accounts {
		res, err := svc.Signup(ctx, acc.FullName, acc.Email, acc.Password)
		if errors.Is(err, apperrors.ErrEmailTaken) {
			logger.Info("account exists, skipping", "email", acc.Email)
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("seed %s: %w", acc.Email, err)
		}
		logger.Info("account created", "email", acc.Email, "user_id", res.User.ID)
		created++
	}
	return created, skipped, nil
}
