// Command seed-catalog loads the catalog items JSON into the database,
// seeds a few demo coupons, and optionally creates a demo user account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/appie1702/storefront/db"
	"github.com/appie1702/storefront/internal/auth"
	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/coupon"
	"github.com/appie1702/storefront/internal/domain/user"
	"github.com/appie1702/storefront/internal/storage/postgres"
)

type itemJSON struct {
	Title         string           `json:"title"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Category      string           `json:"category"`
	Label         string           `json:"label"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
}

func main() {
	var (
		databaseURL  string
		itemsFile    string
		demoPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "", "path to items JSON file (default: built-in catalog)")
	flag.StringVar(&demoPassword, "demo-password", "", "create a 'demo' user with this password (or STORE_DEMO_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if demoPassword == "" {
		demoPassword = os.Getenv("STORE_DEMO_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, demoPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile, demoPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, postgres.NewItemRepository(pool), itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if demoPassword != "" {
		if err := seedDemoUser(ctx, postgres.NewUserRepository(pool), demoPassword); err != nil {
			return errors.Wrap(err, "seed demo user")
		}
	}
	return nil
}

func seedItems(ctx context.Context, items catalog.Repository, itemsFile string) error {
	data := db.SeedItems
	if itemsFile != "" {
		slog.Info("reading items file", slog.String("path", itemsFile))

		var err error
		data, err = os.ReadFile(itemsFile)
		if err != nil {
			return errors.Wrap(err, "read items file")
		}
	}

	var entries []itemJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(entries)))

	for _, e := range entries {
		if e.Slug == "" {
			e.Slug = slug.Make(e.Title)
		}
		item := &catalog.Item{
			ID:            uuid.New(),
			Title:         e.Title,
			Price:         e.Price,
			DiscountPrice: e.DiscountPrice,
			Category:      e.Category,
			Label:         e.Label,
			Slug:          e.Slug,
			Description:   e.Description,
			Image:         e.Image,
		}
		if err := items.Create(ctx, item); err != nil {
			return errors.Wrapf(err, "upsert item %s", e.Slug)
		}
		slog.Info("upserted item", slog.String("slug", e.Slug), slog.String("title", e.Title))
	}
	return nil
}

func seedCoupons(ctx context.Context, coupons coupon.Repository) error {
	slog.Info("seeding demo coupons")

	for _, c := range []coupon.Coupon{
		{Code: "WELCOME10", Amount: decimal.NewFromInt(10)},
		{Code: "FESTIVE25", Amount: decimal.NewFromInt(25)},
	} {
		if err := coupons.Create(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
		slog.Info("upserted coupon", slog.String("code", c.Code))
	}
	return nil
}

func seedDemoUser(ctx context.Context, users user.Repository, password string) error {
	slog.Info("seeding demo user")

	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: hash,
	}
	err = users.Create(ctx, u)
	if errors.Is(err, user.ErrUsernameTaken) {
		slog.Info("demo user already exists")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "create demo user")
	}
	slog.Info("created demo user", slog.String("username", u.Username))
	return nil
}
