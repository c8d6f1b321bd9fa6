//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/usecase"
)

func TestStorefrontUseCase_Status(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("an open healthy merchant reads open", func(t *testing.T) {
		f := newEngineFixture()
		f.seedMerchant("m1", "Asia/Jakarta")
		f.seedSub(&model.Subscription{
			MerchantID: "m1", Type: model.SubscriptionTypeTrial, Status: model.SubscriptionStatusActive,
			TrialEndsAt: tptr(now.Add(24 * time.Hour)),
		})
		uc := usecase.NewStorefrontUseCase(f.merchants, f.autosw, newTestLogger())

		st, err := uc.Status(ctx, "m1", now)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !st.IsOpen {
			t.Error("expected the storefront open")
		}
	})

	t.Run("a suspension applied by the piggybacked check reads closed", func(t *testing.T) {
		f := newEngineFixture()
		f.seedMerchant("m1", "Asia/Jakarta")
		f.seedSub(&model.Subscription{
			MerchantID: "m1", Type: model.SubscriptionTypeTrial, Status: model.SubscriptionStatusActive,
			TrialEndsAt:   tptr(now.Add(-72 * time.Hour)),
			InGracePeriod: true, GraceEndsAt: tptr(now.Add(-time.Hour)),
		})
		uc := usecase.NewStorefrontUseCase(f.merchants, f.autosw, newTestLogger())

		st, err := uc.Status(ctx, "m1", now)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if st.IsOpen {
			t.Error("expected the lookup itself to surface the suspension")
		}
	})

	t.Run("a soft-deleted merchant reads closed", func(t *testing.T) {
		f := newEngineFixture()
		m := f.seedMerchant("m1", "Asia/Jakarta")
		m.DeletedAt = tptr(now.AddDate(0, 0, -1))
		_ = f.merchants.Save(ctx, nil, m)
		uc := usecase.NewStorefrontUseCase(f.merchants, f.autosw, newTestLogger())

		st, err := uc.Status(ctx, "m1", now)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if st.IsOpen {
			t.Error("a deleted merchant must never read open")
		}
	})

	t.Run("an unknown merchant is not found", func(t *testing.T) {
		f := newEngineFixture()
		uc := usecase.NewStorefrontUseCase(f.merchants, f.autosw, newTestLogger())
		if _, err := uc.Status(ctx, "ghost", now); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
