// File: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/config"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
	pg "github.com/mygads/genfity-order-main-sub015/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	merchantRepo := pg.NewMerchantRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	balanceRepo := pg.NewBalanceRepo(pool)

	// If billable merchants already exist, do nothing.
	ids, err := merchantRepo.ListBillableIDs(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list merchants: %v", err)
	}
	if len(ids) > 0 {
		fmt.Printf("%d merchants already present. No changes.\n", len(ids))
		return
	}

	// Seed a few sample merchants for testing the billing flow.
	seed := []struct {
		Name     string
		Timezone string
		Topup    int64
	}{
		{"Warung Nusantara", "Asia/Jakarta", 250_000},
		{"Kopi Pagi", "Asia/Jakarta", 0},
		{"Sate Senja", "Asia/Makassar", 100_000},
	}

	now := time.Now().UTC()
	for _, s := range seed {
		m, err := model.NewMerchant(uuid.NewString(), s.Name, s.Timezone)
		if err != nil {
			log.Fatalf("build merchant %q: %v", s.Name, err)
		}
		if err := merchantRepo.Save(ctx, nil, m); err != nil {
			log.Fatalf("save merchant %q: %v", s.Name, err)
		}

		sub, err := model.NewTrialSubscription(uuid.NewString(), m.ID, cfg.Billing.TrialDays, now)
		if err != nil {
			log.Fatalf("build subscription for %q: %v", s.Name, err)
		}
		if err := subRepo.Save(ctx, nil, sub); err != nil {
			log.Fatalf("save subscription for %q: %v", s.Name, err)
		}

		if s.Topup > 0 {
			if err := balanceRepo.Credit(ctx, nil, m.ID, cfg.Billing.Currency, decimal.NewFromInt(s.Topup)); err != nil {
				log.Fatalf("credit balance for %q: %v", s.Name, err)
			}
		}
		fmt.Printf("  - %s (%s, trial until %s, topup=%d %s)\n", s.Name, s.Timezone, sub.TrialEndsAt.Format("2006-01-02"), s.Topup, cfg.Billing.Currency)
	}
	fmt.Println("Seed complete.")
}
