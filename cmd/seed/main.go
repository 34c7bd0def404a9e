// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/bcrypt"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/catalogs/product"
	"tradebook/internal/infrastructure/storage/postgres"
	"tradebook/internal/infrastructure/storage/postgres/catalog_repo"
	"tradebook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal(ctx, "DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", "error", err)
	}
	defer pool.Close()

	logger.Info(ctx, "connected to database")

	if err := seedAdminUser(ctx, pool); err != nil {
		logger.Fatal(ctx, "failed to seed admin user", "error", err)
	}

	if fixture := os.Getenv("PRODUCTS_FIXTURE"); fixture != "" {
		txManager := postgres.NewTxManager(pool)
		if err := seedProducts(ctx, txManager, fixture); err != nil {
			logger.Fatal(ctx, "failed to seed products", "error", err)
		}
	}

	logger.Info(ctx, "seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@tradebook.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM sys_users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		logger.Info(ctx, "admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	_, err = pool.Exec(ctx, `
		INSERT INTO sys_users (
			id, email, password_hash, name,
			is_active, is_admin, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, 'Administrator', true, true, 1, $4, $4)
	`, id.New(), adminEmail, string(passwordHash), now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	logger.Info(ctx, "admin user created", "email", adminEmail)
	return nil
}

// productFixture is one row of the gzip-compressed JSON fixture file.
type productFixture struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	PurchasePrice string `json:"purchasePrice"`
	SellingPrice  string `json:"sellingPrice"`
}

func seedProducts(ctx context.Context, txManager *postgres.TxManager, path string) error {
	fixtures, err := loadProductFixtures(path)
	if err != nil {
		return err
	}

	repo := catalog_repo.NewProductRepo(txManager)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, f := range fixtures {
			purchasePrice, err := types.NewMoneyFromString(f.PurchasePrice)
			if err != nil {
				return fmt.Errorf("fixture %s: bad purchase price: %w", f.SKU, err)
			}
			sellingPrice, err := types.NewMoneyFromString(f.SellingPrice)
			if err != nil {
				return fmt.Errorf("fixture %s: bad selling price: %w", f.SKU, err)
			}

			if _, err := repo.GetBySKU(ctx, f.SKU); err == nil {
				continue
			} else if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeNotFound {
				return err
			}

			p := product.New(f.SKU, f.Name, purchasePrice, sellingPrice)
			if err := repo.Create(ctx, p); err != nil {
				return fmt.Errorf("fixture %s: %w", f.SKU, err)
			}
		}
		logger.Info(ctx, "product fixtures loaded", "count", len(fixtures))
		return nil
	})
}

func loadProductFixtures(path string) ([]productFixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	var fixtures []productFixture
	if err := json.NewDecoder(gz).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return fixtures, nil
}
