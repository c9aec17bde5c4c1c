// Command seed fills the catalog tables of a local review database with a
// handful of products and users and prints their global ids, ready to paste
// into GraphQL mutations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomgo/reviews/internal/config"
	"github.com/ecomgo/reviews/internal/globalid"
	"github.com/ecomgo/reviews/migrations"
	pkgconfig "github.com/ecomgo/reviews/pkg/config"
	"github.com/ecomgo/reviews/pkg/database"
	"github.com/ecomgo/reviews/pkg/logger"
)

type userDef struct {
	email, first, last string
}

var (
	products = []string{
		"Stainless Steel Kettle",
		"Two-Slice Toaster",
		"Wireless Headphones",
		"Trail Running Shoes",
		"Cast Iron Skillet",
	}
	users = []userDef{
		{"ann.lee@example.com", "Ann", "Lee"},
		{"bo.park@example.com", "Bo", "Park"},
		{"cara.diaz@example.com", "Cara", "Diaz"},
	}
)

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("review-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, name := range products {
		id, err := seedProduct(ctx, pool, name)
		if err != nil {
			return err
		}
		fmt.Printf("product %-24s %s\n", name, globalid.Encode(globalid.TypeProduct, id))
	}
	for _, u := range users {
		var id int64
		err := pool.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
			 RETURNING id`,
			u.email, u.first, u.last,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
		fmt.Printf("user    %-24s %s\n", u.email, globalid.Encode(globalid.TypeUser, id))
	}

	log.Info("seed complete", slog.Int("products", len(products)), slog.Int("users", len(users)))
	return nil
}

// seedProduct returns the id of the product called name, inserting it first
// if needed. Product names carry no unique constraint.
func seedProduct(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx,
		`WITH existing AS (SELECT id FROM products WHERE name = $1 ORDER BY id LIMIT 1),
		      inserted AS (
		          INSERT INTO products (name)
		          SELECT $1 WHERE NOT EXISTS (SELECT 1 FROM existing)
		          RETURNING id
		      )
		 SELECT id FROM existing UNION ALL SELECT id FROM inserted`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("seed product %q: %w", name, err)
	}
	return id, nil
}
